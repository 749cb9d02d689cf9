package handlers

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ersonp/relgraph/internal/domain/services"
)

func writeTempFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func newTestImportHandler(t *testing.T) (*ImportHandler, *handlerEnv) {
	t.Helper()
	env := newHandlerEnv(t)
	return NewImportHandler(services.NewImportService(env.links)), env
}

func TestImportHandler_Handle_JSONFile(t *testing.T) {
	handler, env := newTestImportHandler(t)
	path := writeTempFile(t, "links.json",
		`[{"from": "emf:doc1", "type": "references", "to": "emf:doc2", "created_by": "emf:u1"}]`)

	result, err := handler.Handle(context.Background(), path, ImportOptions{
		OnConflict: services.ConflictOverwrite,
	})

	require.NoError(t, err)
	assert.Equal(t, 1, result.Imported)
	assert.Equal(t, 0, result.Skipped)
	assert.Empty(t, result.Errors)

	rels, err := env.links.LinksFrom(context.Background(), ref("emf:doc1"), "references")
	require.NoError(t, err)
	require.Len(t, rels, 1)
	assert.Equal(t, "emf:u1", rels[0].Properties.CreatedBy)
}

func TestImportHandler_Handle_CSVFile(t *testing.T) {
	handler, env := newTestImportHandler(t)
	path := writeTempFile(t, "links.csv", "from,type,to,simple\n"+
		"emf:doc1,hasAttachment,emf:img1,true\n"+
		"emf:doc1,references,emf:doc2,false\n")

	result, err := handler.Handle(context.Background(), path, ImportOptions{
		OnConflict: services.ConflictSkip,
	})

	require.NoError(t, err)
	assert.Equal(t, 2, result.Imported)

	linked, err := env.links.IsLinkedSimple(context.Background(), ref("emf:doc1"), ref("emf:img1"), "hasAttachment")
	require.NoError(t, err)
	assert.True(t, linked)
}

func TestImportHandler_Handle_YAMLFile(t *testing.T) {
	handler, _ := newTestImportHandler(t)
	path := writeTempFile(t, "links.yaml", `
- from: emf:doc1
  type: references
  to: emf:doc2
- from: emf:doc1
  type: references
`)

	result, err := handler.Handle(context.Background(), path, ImportOptions{})

	require.NoError(t, err)
	assert.Equal(t, 1, result.Imported)
	require.Len(t, result.Errors, 1)
	assert.Equal(t, "to", result.Errors[0].Field)
	assert.Equal(t, 5, result.Errors[0].Line)
}

func TestImportHandler_Handle_ConflictSkip(t *testing.T) {
	handler, _ := newTestImportHandler(t)
	path := writeTempFile(t, "links.json",
		`[{"from": "emf:doc1", "type": "references", "to": "emf:doc2"}]`)

	_, err := handler.Handle(context.Background(), path, ImportOptions{OnConflict: services.ConflictSkip})
	require.NoError(t, err)

	result, err := handler.Handle(context.Background(), path, ImportOptions{OnConflict: services.ConflictSkip})
	require.NoError(t, err)
	assert.Equal(t, 0, result.Imported)
	assert.Equal(t, 1, result.Skipped)
}

func TestImportHandler_Handle_DryRun(t *testing.T) {
	handler, env := newTestImportHandler(t)
	path := writeTempFile(t, "links.json",
		`[{"from": "emf:doc1", "type": "references", "to": "emf:doc2"}]`)
	updatesBefore := env.store.UpdateCalls

	result, err := handler.Handle(context.Background(), path, ImportOptions{DryRun: true})

	require.NoError(t, err)
	assert.Equal(t, 1, result.Imported)
	assert.Equal(t, updatesBefore, env.store.UpdateCalls)
}

func TestImportHandler_Handle_ExplicitFormat(t *testing.T) {
	handler, _ := newTestImportHandler(t)
	path := writeTempFile(t, "links.txt", "from,type,to\nemf:a,references,emf:b\n")

	result, err := handler.Handle(context.Background(), path, ImportOptions{Format: "csv"})

	require.NoError(t, err)
	assert.Equal(t, 1, result.Imported)
}

func TestImportHandler_Handle_Empty(t *testing.T) {
	handler, _ := newTestImportHandler(t)
	path := writeTempFile(t, "links.json", `[]`)

	result, err := handler.Handle(context.Background(), path, ImportOptions{})

	require.NoError(t, err)
	assert.Zero(t, result.Imported)
	assert.Empty(t, result.Errors)
}

func TestImportHandler_Handle_Errors(t *testing.T) {
	handler, _ := newTestImportHandler(t)

	tests := []struct {
		name    string
		path    string
		opts    ImportOptions
		wantErr string
	}{
		{
			name:    "unsupported extension",
			path:    writeTempFile(t, "links.txt", "x"),
			wantErr: "unsupported format",
		},
		{
			name:    "missing file",
			path:    filepath.Join(t.TempDir(), "missing.json"),
			wantErr: "opening file",
		},
		{
			name:    "malformed json",
			path:    writeTempFile(t, "links.json", `{not json`),
			wantErr: "parsing file",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := handler.Handle(context.Background(), tt.path, tt.opts)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
