package minio

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/minio/minio-go/v7"

	"github.com/turtacn/chemenv/internal/domain/environment"
	"github.com/turtacn/chemenv/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/chemenv/pkg/errors"
	"github.com/turtacn/chemenv/pkg/types/common"
	envtypes "github.com/turtacn/chemenv/pkg/types/environment"
)

const (
	revisionPrefix = "environments/"
	contentType    = "application/json"
)

// RevisionStore keeps one object per revision under
// environments/<id>/<version>.json. Versions are zero-padded so the
// lexical listing order is the version order.
type RevisionStore struct {
	client *Client
	logger logging.Logger
}

func NewRevisionStore(client *Client, log logging.Logger) *RevisionStore {
	return &RevisionStore{client: client, logger: log}
}

var _ environment.RevisionStore = (*RevisionStore)(nil)

func revisionObject(id common.ID, version int64) string {
	return fmt.Sprintf("%s%s/%020d.json", revisionPrefix, id, version)
}

// Append writes rev unless an object for its version already exists.
func (s *RevisionStore) Append(ctx context.Context, rev envtypes.EnvironmentRevision) error {
	name := revisionObject(common.ID(rev.EnvironmentID), rev.Version)
	_, err := s.client.api.StatObject(ctx, s.client.bucket, name, minio.StatObjectOptions{})
	if err == nil {
		s.logger.Debug("Revision already archived", logging.String("object", name))
		return nil
	}
	if !isNoSuchKey(err) {
		return errors.Wrap(err, errors.ErrCodeExternalService, "failed to stat revision").WithDetail(name)
	}

	data, err := json.Marshal(rev)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeSerialization, "failed to encode revision")
	}
	_, err = s.client.api.PutObject(ctx, s.client.bucket, name, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: contentType,
		UserMetadata: map[string]string{
			"environment-id": rev.EnvironmentID,
			"operation":      rev.Operation,
		},
	})
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeExternalService, "failed to upload revision").WithDetail(name)
	}
	return nil
}

func (s *RevisionStore) List(ctx context.Context, id common.ID) ([]envtypes.EnvironmentRevision, error) {
	prefix := revisionPrefix + id.String() + "/"
	var out []envtypes.EnvironmentRevision
	for obj := range s.client.api.ListObjects(ctx, s.client.bucket, minio.ListObjectsOptions{Prefix: prefix, Recursive: true}) {
		if obj.Err != nil {
			return nil, errors.Wrap(obj.Err, errors.ErrCodeExternalService, "failed to list revisions").WithDetail(prefix)
		}
		if !strings.HasSuffix(obj.Key, ".json") {
			continue
		}
		rev, err := s.read(ctx, obj.Key)
		if err != nil {
			return nil, err
		}
		out = append(out, *rev)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Version < out[j].Version })
	return out, nil
}

func (s *RevisionStore) Get(ctx context.Context, id common.ID, version int64) (*envtypes.EnvironmentRevision, error) {
	rev, err := s.read(ctx, revisionObject(id, version))
	if isNoSuchKey(err) {
		return nil, environment.RevisionNotFound(id, version)
	}
	return rev, err
}

// read downloads and decodes one object. Download errors keep the SDK error
// as their cause so callers can test for NoSuchKey.
func (s *RevisionStore) read(ctx context.Context, name string) (*envtypes.EnvironmentRevision, error) {
	body, err := s.client.api.GetObject(ctx, s.client.bucket, name, minio.GetObjectOptions{})
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeExternalService, "failed to download revision").WithDetail(name)
	}
	defer body.Close()

	var rev envtypes.EnvironmentRevision
	if err := json.NewDecoder(body).Decode(&rev); err != nil {
		if isNoSuchKey(err) {
			return nil, errors.Wrap(err, errors.ErrCodeExternalService, "failed to download revision").WithDetail(name)
		}
		return nil, errors.Wrap(err, errors.ErrCodeSerialization, "failed to decode revision").WithDetail(name)
	}
	return &rev, nil
}

//Personal.AI order the ending
