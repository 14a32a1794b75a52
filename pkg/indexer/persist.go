package indexer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	ragerrors "github.com/Aman-CERP/ragcore/internal/errors"
	"github.com/Aman-CERP/ragcore/internal/store"
)

const (
	// SchemaVersion is the artifact layout written by Persist.
	SchemaVersion = 1

	// ArtifactFileName is the main artifact inside an index location.
	ArtifactFileName = "artifact.json"

	densePrefix = "dense-"
)

// artifactFile is the on-disk form of an Artifact.
type artifactFile struct {
	SchemaVersion       int         `json:"schema_version"`
	Method              string      `json:"method"`
	Documents           []string    `json:"documents"`
	MethodState         methodState `json:"method_state"`
	VectorIndexLocation *string     `json:"vector_index_location"`
	BuiltAt             time.Time   `json:"built_at"`
	BuildID             string      `json:"build_id"`
}

type methodState struct {
	Lexical     *store.BM25  `json:"lexical,omitempty"`
	VectorSpace *store.TFIDF `json:"vector_space,omitempty"`
	Dense       *DenseMeta   `json:"dense,omitempty"`
}

// ArtifactPath returns the main artifact file for location.
func ArtifactPath(location string) string {
	return filepath.Join(location, ArtifactFileName)
}

// Persist writes art to location, replacing any artifact already there.
//
// The dense index of a hybrid artifact goes to its own sibling file first;
// then artifact.json is swapped in atomically. If anything fails before the
// swap the previous artifact is untouched. Dense files referenced by neither
// the new nor the previous artifact are removed afterwards.
func Persist(ctx context.Context, art *Artifact, location string) error {
	if art == nil {
		return errors.New("indexer: nil artifact")
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	unlock, err := store.LockDir(ctx, location)
	if err != nil {
		return persistError(ctx, location, err)
	}
	defer func() { _ = unlock() }()

	previous := referencedDenseFile(location)

	buildID := art.BuildID
	if buildID == "" {
		buildID = uuid.NewString()
	}

	file := artifactFile{
		SchemaVersion: SchemaVersion,
		Method:        string(art.Method),
		Documents:     art.Documents,
		MethodState: methodState{
			Lexical:     art.Lexical,
			VectorSpace: art.VectorSpace,
			Dense:       art.DenseMeta,
		},
		BuiltAt: art.BuiltAt,
		BuildID: buildID,
	}
	if file.Documents == nil {
		file.Documents = []string{}
	}

	if art.Dense != nil {
		name := densePrefix + buildID + "." + art.Dense.Backend()
		if err := store.WriteFileAtomic(ctx, filepath.Join(location, name), art.Dense.Save); err != nil {
			return persistError(ctx, location, fmt.Errorf("failed to write dense index: %w", err))
		}
		file.VectorIndexLocation = &name
	}

	err = store.WriteFileAtomic(ctx, ArtifactPath(location), func(w io.Writer) error {
		enc := json.NewEncoder(w)
		enc.SetEscapeHTML(false)
		return enc.Encode(&file)
	})
	if err != nil {
		return persistError(ctx, location, fmt.Errorf("failed to write artifact: %w", err))
	}

	keep := map[string]bool{previous: true}
	if file.VectorIndexLocation != nil {
		keep[*file.VectorIndexLocation] = true
	}
	removeStaleDenseFiles(location, keep)

	slog.Info("index_persisted",
		slog.String("location", location),
		slog.String("method", file.Method),
		slog.String("build_id", buildID),
		slog.Int("documents", len(file.Documents)))
	return nil
}

// BuildAndPersist is Build followed by Persist.
func BuildAndPersist(ctx context.Context, method Method, corpus []string, location string, opts ...Option) (*Artifact, error) {
	art, err := Build(ctx, method, corpus, opts...)
	if err != nil {
		return nil, err
	}
	if err := Persist(ctx, art, location); err != nil {
		return nil, err
	}
	return art, nil
}

func persistError(ctx context.Context, location string, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	return ragerrors.New(ragerrors.ErrCodeIndexFailed, "failed to persist index", err).
		WithDetail("location", location)
}

// referencedDenseFile returns the dense sibling named by the artifact
// currently at location, or "" if there is none or it cannot be read.
func referencedDenseFile(location string) string {
	data, err := os.ReadFile(ArtifactPath(location))
	if err != nil {
		return ""
	}
	var head struct {
		VectorIndexLocation *string `json:"vector_index_location"`
	}
	if json.Unmarshal(data, &head) != nil || head.VectorIndexLocation == nil {
		return ""
	}
	return *head.VectorIndexLocation
}

func removeStaleDenseFiles(location string, keep map[string]bool) {
	entries, err := os.ReadDir(location)
	if err != nil {
		return
	}
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasPrefix(name, densePrefix) || keep[name] {
			continue
		}
		if err := os.Remove(filepath.Join(location, name)); err != nil {
			slog.Debug("dense_cleanup_failed",
				slog.String("file", name),
				slog.String("error", err.Error()))
		}
	}
}

// Open reads and verifies the artifact persisted at location.
//
// It returns an IndexNotFoundError when there is no artifact, a
// SchemaVersionError for an unknown schema_version, and a
// CorruptArtifactError when the file does not decode, the dense sibling is
// missing or unreadable, or the state does not match the documents.
func Open(ctx context.Context, location string) (*Artifact, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(ArtifactPath(location))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ragerrors.IndexNotFoundError(location, err)
		}
		return nil, ragerrors.CorruptArtifactError("failed to read artifact", err).
			WithDetail("location", location)
	}

	var head struct {
		SchemaVersion *int `json:"schema_version"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return nil, corrupt(location, "artifact is not valid JSON", err)
	}
	if head.SchemaVersion == nil {
		return nil, corrupt(location, "artifact has no schema_version", nil)
	}
	if *head.SchemaVersion != SchemaVersion {
		return nil, ragerrors.SchemaVersionError(*head.SchemaVersion, SchemaVersion).
			WithDetail("location", location)
	}

	var file artifactFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, corrupt(location, "failed to decode artifact", err)
	}

	art := &Artifact{
		Method:      Method(file.Method),
		Documents:   file.Documents,
		Lexical:     file.MethodState.Lexical,
		VectorSpace: file.MethodState.VectorSpace,
		DenseMeta:   file.MethodState.Dense,
		BuildID:     file.BuildID,
		BuiltAt:     file.BuiltAt,
	}
	if art.Documents == nil {
		art.Documents = []string{}
	}
	if !art.Method.valid() {
		return nil, corrupt(location, fmt.Sprintf("unknown method %q", file.Method), nil)
	}

	n := len(art.Documents)
	if art.Lexical != nil {
		if err := art.Lexical.Prepare(); err != nil {
			return nil, corrupt(location, "invalid lexical state", err)
		}
	}
	if art.VectorSpace != nil {
		if err := art.VectorSpace.Prepare(); err != nil {
			return nil, corrupt(location, "invalid vector-space state", err)
		}
	}
	if art.Method == MethodHybrid && art.DenseMeta != nil && file.VectorIndexLocation != nil {
		dense, err := openDense(location, *file.VectorIndexLocation, art.DenseMeta)
		if err != nil {
			return nil, err
		}
		art.Dense = dense
	}
	if err := art.Validate(); err != nil {
		var rerr *ragerrors.RagError
		if errors.As(err, &rerr) {
			return nil, rerr.WithDetail("location", location)
		}
		return nil, corrupt(location, "invalid artifact", err)
	}

	slog.Debug("artifact_opened",
		slog.String("location", location),
		slog.String("method", file.Method),
		slog.Int("documents", n))
	return art, nil
}

// openDense decodes the sidecar. Coverage of the documents is checked by
// Validate.
func openDense(location, name string, meta *DenseMeta) (store.DenseIndex, error) {
	if name == "" || filepath.Base(name) != name || name == "." || name == ".." {
		return nil, corrupt(location, fmt.Sprintf("invalid vector_index_location %q", name), nil)
	}

	dense, err := store.NewDenseIndex(store.DenseConfig{
		Backend:    meta.Backend,
		Dimensions: meta.Dimensions,
		M:          meta.M,
		EfSearch:   meta.EfSearch,
		Seed:       meta.Seed,
	})
	if err != nil {
		return nil, corrupt(location, "invalid dense metadata", err)
	}

	f, err := os.Open(filepath.Join(location, name))
	if err != nil {
		return nil, corrupt(location, "dense index file is missing or unreadable", err).
			WithDetail("file", name)
	}
	defer func() { _ = f.Close() }()

	if err := dense.Load(f); err != nil {
		return nil, corrupt(location, "failed to decode dense index", err).
			WithDetail("file", name)
	}
	if dense.Dimensions() != meta.Dimensions {
		return nil, corrupt(location, "dense index dimension does not match metadata",
			ragerrors.DimensionMismatch{Expected: meta.Dimensions, Got: dense.Dimensions()})
	}
	return dense, nil
}

func corrupt(location, message string, cause error) *ragerrors.RagError {
	return ragerrors.CorruptArtifactError(message, cause).WithDetail("location", location)
}
