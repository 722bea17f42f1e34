package bulkstore

import (
	"encoding/json"

	"github.com/cuemby/thorium/pkg/types"
)

const (
	kindSample  = "sample"
	kindRepo    = "repo"
	kindResult  = "result"
	kindTag     = "tag"
	kindComment = "comment"
	kindNetpol  = "netpol"
)

// PutSample stores a sample under each group it is visible to; the
// same SHA256 may appear in multiple groups' partitions, resolved by
// the caller's tie-breaker rule when listing across groups (the
// newest CreatedAt wins, per the original system's cross-group dedup).
func (s *Store) PutSample(sample *types.Sample) error {
	for _, group := range sample.Group {
		if err := s.put(kindSample, group, sample.SHA256, sample); err != nil {
			return err
		}
	}
	return nil
}

// GetSample fetches a sample as visible within one group.
func (s *Store) GetSample(group, sha256 string) (*types.Sample, error) {
	var sample types.Sample
	if err := s.get(kindSample, group, sha256, &sample); err != nil {
		return nil, err
	}
	return &sample, nil
}

// ListSamples pages through group's samples, oldest partition first.
func (s *Store) ListSamples(group, cursor string, limit int) ([]*types.Sample, string, error) {
	var out []*types.Sample
	next, err := s.listPage(kindSample, group, cursor, limit, func(raw []byte) error {
		var sample types.Sample
		if err := json.Unmarshal(raw, &sample); err != nil {
			return nil
		}
		out = append(out, &sample)
		return nil
	})
	return out, next, err
}

func (s *Store) PutRepo(repo *types.Repo) error {
	for _, group := range repo.Group {
		if err := s.put(kindRepo, group, repo.URL, repo); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) GetRepo(group, url string) (*types.Repo, error) {
	var repo types.Repo
	if err := s.get(kindRepo, group, url, &repo); err != nil {
		return nil, err
	}
	return &repo, nil
}

func (s *Store) ListRepos(group, cursor string, limit int) ([]*types.Repo, string, error) {
	var out []*types.Repo
	next, err := s.listPage(kindRepo, group, cursor, limit, func(raw []byte) error {
		var repo types.Repo
		if err := json.Unmarshal(raw, &repo); err != nil {
			return nil
		}
		out = append(out, &repo)
		return nil
	})
	return out, next, err
}

func (s *Store) PutResult(result *types.Result) error {
	return s.put(kindResult, result.Group, result.ID, result)
}

func (s *Store) GetResult(group, id string) (*types.Result, error) {
	var result types.Result
	if err := s.get(kindResult, group, id, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (s *Store) ListResults(group, cursor string, limit int) ([]*types.Result, string, error) {
	var out []*types.Result
	next, err := s.listPage(kindResult, group, cursor, limit, func(raw []byte) error {
		var result types.Result
		if err := json.Unmarshal(raw, &result); err != nil {
			return nil
		}
		out = append(out, &result)
		return nil
	})
	return out, next, err
}

func (s *Store) PutTag(tag *types.Tag) error {
	return s.put(kindTag, tag.Group, tag.Target+"\x00"+tag.Key, tag)
}

func (s *Store) GetTag(group, target, key string) (*types.Tag, error) {
	var tag types.Tag
	if err := s.get(kindTag, group, target+"\x00"+key, &tag); err != nil {
		return nil, err
	}
	return &tag, nil
}

func (s *Store) PutComment(comment *types.Comment) error {
	return s.put(kindComment, comment.Group, comment.ID, comment)
}

func (s *Store) ListComments(group, cursor string, limit int) ([]*types.Comment, string, error) {
	var out []*types.Comment
	next, err := s.listPage(kindComment, group, cursor, limit, func(raw []byte) error {
		var comment types.Comment
		if err := json.Unmarshal(raw, &comment); err != nil {
			return nil
		}
		out = append(out, &comment)
		return nil
	})
	return out, next, err
}

func (s *Store) PutNetworkPolicy(policy *types.NetworkPolicy) error {
	return s.put(kindNetpol, policy.Group, policy.Name, policy)
}

func (s *Store) GetNetworkPolicy(group, name string) (*types.NetworkPolicy, error) {
	var policy types.NetworkPolicy
	if err := s.get(kindNetpol, group, name, &policy); err != nil {
		return nil, err
	}
	return &policy, nil
}
