// Package reaction implements Thorium's reaction/job state machine:
// creation, claiming, stage progression, sleeping (the generator
// checkpoint path), failure cascades, and the bulk-reset recovery
// sweep. Every transition here applies exactly one command through
// the control-plane's raft cluster, giving each transition the
// "atomic group of changes, all or nothing" guarantee the scheduler
// and CLI both depend on.
package reaction

import (
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/cuemby/thorium/pkg/apierror"
	"github.com/cuemby/thorium/pkg/controlplane"
	"github.com/cuemby/thorium/pkg/types"
)

// Service is the entry point for every reaction/job operation.
type Service struct {
	cluster *controlplane.Cluster
	logger  zerolog.Logger
}

// NewService wraps cluster for reaction/job operations. Its logger
// discards everything until WithLogger replaces it.
func NewService(cluster *controlplane.Cluster) *Service {
	return &Service{cluster: cluster, logger: zerolog.Nop()}
}

// WithLogger overrides the service's logger, e.g. with a
// log.WithComponent("reaction") instance at process start.
func (s *Service) WithLogger(logger zerolog.Logger) *Service {
	s.logger = logger
	return s
}

// Create instantiates a new Reaction against a Pipeline and emits the
// first stage's jobs. Stage 0's images each become one RawJob in
// Created status.
func (s *Service) Create(pipeline *types.Pipeline, group, creator string, samples, repos []string, args map[string][]string, parent string, triggerDepth int) (*types.Reaction, error) {
	if len(pipeline.Order) == 0 {
		return nil, apierror.NewBadRequest("pipeline has no stages")
	}

	now := time.Now()
	r := &types.Reaction{
		ID:           uuid.NewString(),
		Group:        group,
		Pipeline:     pipeline.Name,
		Creator:      creator,
		Status:       types.ReactionCreated,
		CurrentStage: 0,
		StageCount:   len(pipeline.Order),
		Samples:      samples,
		Repos:        repos,
		Args:         args,
		Parent:       parent,
		TriggerDepth: triggerDepth,
		SLA:          pipeline.SLA,
		Deadline:     now.Add(pipeline.SLA),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.cluster.Apply("create_reaction", r); err != nil {
		return nil, err
	}
	if err := s.createStageJobs(r, pipeline, 0); err != nil {
		return nil, err
	}

	s.logger.Info().Str("reaction_id", r.ID).Str("pipeline", pipeline.Name).Msg("reaction created")
	return r, nil
}

// createStageJobs emits one RawJob per image named in pipeline's stage
// index stageIndex, each carrying the reaction's samples/repos/args
// and a stage length equal to the stage's image count, so proceed can
// tell when every one of the stage's jobs has finished. Used both by
// Create (stage 0) and by advanceReaction (every subsequent stage),
// per the "identical to reaction creation but only for that stage"
// rule.
func (s *Service) createStageJobs(r *types.Reaction, pipeline *types.Pipeline, stageIndex int) error {
	stage := pipeline.Order[stageIndex]
	now := time.Now()

	for _, image := range stage {
		img, err := s.cluster.Store().GetImage(r.Group, image)
		if err != nil {
			return apierror.Wrap(err, apierror.KindBadRequest, "look up stage image "+image)
		}

		job := &types.RawJob{
			ID:                 uuid.NewString(),
			Group:              r.Group,
			Pipeline:           r.Pipeline,
			Stage:              stageLabel(stageIndex),
			Image:              image,
			Scaler:             img.Scaler,
			Creator:            r.Creator,
			ReactionID:         r.ID,
			Status:             types.JobCreated,
			Args:               r.Args,
			Samples:            r.Samples,
			Repos:              r.Repos,
			TriggerDepth:       r.TriggerDepth,
			CurrentStageLength: len(stage),
			Deadline:           r.Deadline,
			CreatedAt:          now,
		}
		if err := s.cluster.Apply("create_job", job); err != nil {
			return err
		}
	}
	return nil
}

func stageLabel(index int) string {
	return strconv.Itoa(index)
}
