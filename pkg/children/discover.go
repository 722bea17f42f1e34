package children

import (
	"net/http"
	"os"
	"path/filepath"
	"strings"
)

// sniffLen is how many leading bytes DetectContentType needs; reading
// more than a file's size is harmless, os.File.Read just returns
// fewer bytes at EOF.
const sniffLen = 512

// Discover walks root (one of an image's well-known child categories:
// source/, unpacked/, carved/unknown/, carved/pcap/) and returns every
// regular file found, each sniffed for its MIME type. A root that
// doesn't exist (the tool wrote nothing in that category) yields no
// candidates rather than an error.
func Discover(root string) ([]Candidate, error) {
	var out []Candidate

	if _, err := os.Stat(root); os.IsNotExist(err) {
		return out, nil
	}

	err := filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}
		mime, err := sniffMime(path)
		if err != nil {
			return err
		}
		out = append(out, Candidate{
			Path:          path,
			MimeType:      mime,
			FileName:      info.Name(),
			FileExtension: strings.ToLower(filepath.Ext(info.Name())),
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func sniffMime(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	buf := make([]byte, sniffLen)
	n, err := f.Read(buf)
	if err != nil && n == 0 {
		return "application/octet-stream", nil
	}
	return http.DetectContentType(buf[:n]), nil
}
