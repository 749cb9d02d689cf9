package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ersonp/relgraph/internal/domain/entities"
	"github.com/ersonp/relgraph/internal/domain/services"
	"github.com/ersonp/relgraph/internal/infrastructure/parsers"
)

func newTestExportHandler(t *testing.T) (*ExportHandler, *handlerEnv) {
	t.Helper()
	env := newHandlerEnv(t)
	return NewExportHandler(services.NewExportService(env.links)), env
}

func TestExportHandler_Handle_JSON(t *testing.T) {
	ctx := context.Background()
	handler, env := newTestExportHandler(t)
	_, _, err := env.links.Link(ctx, ref("emf:doc1"), ref("emf:doc2"), "references", "",
		entities.Properties{CreatedBy: "emf:u1"})
	require.NoError(t, err)

	var buf bytes.Buffer
	result, err := handler.Handle(ctx, &buf, ExportOptions{Format: "auto"})
	require.NoError(t, err)
	assert.Equal(t, "json", result.Format)
	assert.Equal(t, 1, result.Links)

	var rows []parsers.RawLink
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rows))
	assert.Equal(t, []parsers.RawLink{{
		From: "emf:doc1", Type: "emf:references", To: "emf:doc2",
		Reverse: "emf:referencedBy", CreatedBy: "emf:u1",
	}}, rows)
}

func TestExportHandler_Handle_FormatFromOutput(t *testing.T) {
	ctx := context.Background()
	handler, env := newTestExportHandler(t)
	_, err := env.links.LinkSimple(ctx, ref("emf:case1"), ref("emf:doc1"), "hasChild")
	require.NoError(t, err)

	var buf bytes.Buffer
	result, err := handler.Handle(ctx, &buf, ExportOptions{Output: "/tmp/links.CSV"})
	require.NoError(t, err)
	assert.Equal(t, "csv", result.Format)
	assert.Equal(t, "from,type,to,reverse,created_by,simple\nemf:case1,emf:hasChild,emf:doc1,,,true\n", buf.String())
}

func TestExportHandler_Handle_ReimportsCleanly(t *testing.T) {
	ctx := context.Background()
	handler, env := newTestExportHandler(t)
	_, _, err := env.links.Link(ctx, ref("emf:doc1"), ref("emf:doc2"), "references", "", entities.Properties{})
	require.NoError(t, err)

	var buf bytes.Buffer
	_, err = handler.Handle(ctx, &buf, ExportOptions{Format: "yaml"})
	require.NoError(t, err)
	path := writeTempFile(t, "links.yaml", buf.String())

	importer := NewImportHandler(services.NewImportService(env.links))
	result, err := importer.Handle(ctx, path, ImportOptions{OnConflict: services.ConflictSkip})
	require.NoError(t, err)
	assert.Equal(t, 0, result.Imported)
	assert.Equal(t, 1, result.Skipped, "exported links already exist")
}

func TestExportHandler_Handle_Errors(t *testing.T) {
	ctx := context.Background()

	handler, _ := newTestExportHandler(t)
	_, err := handler.Handle(ctx, &bytes.Buffer{}, ExportOptions{Format: "xml"})
	assert.ErrorContains(t, err, "unsupported export format: xml")

	_, err = handler.Handle(ctx, &bytes.Buffer{}, ExportOptions{Output: "links.txt"})
	assert.ErrorContains(t, err, "unsupported export format: txt")

	handler, env := newTestExportHandler(t)
	env.store.SelectErr = assert.AnError
	_, err = handler.Handle(ctx, &bytes.Buffer{}, ExportOptions{})
	require.ErrorIs(t, err, assert.AnError)
}
