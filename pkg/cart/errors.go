package cart

import "github.com/cuemby/thorium/pkg/apierror"

// ErrInvalidHeader is returned when a stream does not begin with a
// valid CaRT magic number and version.
var ErrInvalidHeader = apierror.New(apierror.KindBadRequest, "cart: invalid header")

// ErrInvalidFooter is returned when a stream's trailing bytes do not
// carry the CaRT footer magic number.
var ErrInvalidFooter = apierror.New(apierror.KindBadRequest, "cart: invalid footer")

// ErrShortStream is returned when a reader ends before a complete
// header or footer could be read.
var ErrShortStream = apierror.New(apierror.KindBadRequest, "cart: short stream")

// ErrFinishBeforeData is returned by ManualEncoder.Finish when no
// bytes were ever pushed. CaRT never emits a header+empty-body+footer
// for a stream that received no data. ManualEncoder.Push also returns
// it, with details attached, once the encoder has finished.
var ErrFinishBeforeData = apierror.New(apierror.KindBadRequest, "cart: finish called before any data was pushed")
