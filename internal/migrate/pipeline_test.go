package migrate

import (
	"archive/zip"
	"bytes"
	"context"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/takak2166/wiz2onenote/internal/locator"
	"github.com/takak2166/wiz2onenote/internal/models"
	"github.com/takak2166/wiz2onenote/internal/onenote"
	"github.com/takak2166/wiz2onenote/internal/onenote/mock_onenote"
	"github.com/takak2166/wiz2onenote/internal/transform"
)

// writeBundle stores a zipped document at the path GUIDLocator resolves
func writeBundle(t *testing.T, dataDir, guid string, members map[string]string) {
	t.Helper()

	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	for name, content := range members {
		f, err := w.Create(name)
		require.NoError(t, err)
		_, err = io.WriteString(f, content)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())

	path := filepath.Join(dataDir, "notes", "{"+guid+"}")
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0644))
}

func simpleBundle(title string) map[string]string {
	return map[string]string{
		"index.html":          "<html><head><title></title></head><body><p>" + title + `</p><img src="index_files/pic.png"></body></html>`,
		"index_files/pic.png": "png-" + title,
	}
}

func record(guid, location, title string) models.DocumentRecord {
	return models.DocumentRecord{
		GUID:     guid,
		Title:    title,
		Location: location,
		Created:  time.Date(2020, 1, 1, 10, 0, 0, 0, time.UTC),
	}
}

// readParts decodes a multipart page body into part name -> content
func readParts(t *testing.T, body io.Reader, contentType string) map[string]string {
	t.Helper()

	_, params, err := mime.ParseMediaType(contentType)
	require.NoError(t, err)

	parts := map[string]string{}
	mr := multipart.NewReader(body, params["boundary"])
	for {
		p, err := mr.NextPart()
		if err == io.EOF {
			return parts
		}
		require.NoError(t, err)
		data, err := io.ReadAll(p)
		require.NoError(t, err)
		parts[p.FormName()] = string(data)
	}
}

func newPipeline(api onenote.API, opts Options) *Pipeline {
	return NewPipeline(locator.GUIDLocator{}, transform.New(), NewUploader(api), opts)
}

func TestEndToEndTwoFolders(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	dataDir := t.TempDir()
	writeBundle(t, dataDir, "g-a", simpleBundle("Alpha"))
	writeBundle(t, dataDir, "g-b", simpleBundle("Beta"))

	catalog := &models.Catalog{
		DataDir: dataDir,
		Groups: []models.FolderGroup{
			{Location: "/A/", Documents: []models.DocumentRecord{record("g-a", "/A/", "Alpha")}},
			{Location: "/B/", Documents: []models.DocumentRecord{record("g-b", "/B/", "Beta")}},
		},
	}

	ctx := context.Background()
	api := mock_onenote.NewMockAPI(ctrl)

	uploaded := map[string]map[string]string{}
	capture := func(ctx context.Context, sectionID string, body io.Reader, contentType string) (string, error) {
		uploaded[sectionID] = readParts(t, body, contentType)
		return "page-" + sectionID, nil
	}

	gomock.InOrder(
		api.EXPECT().CreateNotebook(ctx, "WizNote").Return("nb-1", nil).Times(1),
		api.EXPECT().CreateSection(ctx, "nb-1", "A").Return("sec-A", nil),
		api.EXPECT().CreateSection(ctx, "nb-1", "B").Return("sec-B", nil),
		api.EXPECT().CreatePage(gomock.Any(), "sec-A", gomock.Any(), gomock.Any()).DoAndReturn(capture),
		api.EXPECT().CreatePage(gomock.Any(), "sec-B", gomock.Any(), gomock.Any()).DoAndReturn(capture),
	)

	h, err := NewHierarchyBuilder(api).Build(ctx, "WizNote", catalog)
	require.NoError(t, err)

	report, err := newPipeline(api, Options{}).Run(ctx, h, catalog)
	require.NoError(t, err)

	assert.Equal(t, 2, report.Succeeded())
	assert.Empty(t, report.Failures())
	assert.Equal(t, "page-sec-A", report.Results[0].PageID)
	assert.Equal(t, "page-sec-B", report.Results[1].PageID)

	require.Len(t, uploaded, 2)
	assert.Contains(t, uploaded["sec-A"][onenote.PresentationPart], "<title>Alpha</title>")
	assert.Contains(t, uploaded["sec-A"][onenote.PresentationPart], `src="name:pic.png"`)
	assert.Equal(t, "png-Alpha", uploaded["sec-A"]["pic.png"])
	assert.Contains(t, uploaded["sec-B"][onenote.PresentationPart], "<title>Beta</title>")
	assert.Equal(t, "png-Beta", uploaded["sec-B"]["pic.png"])
}

func TestRunContinuesAfterFailures(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	dataDir := t.TempDir()
	// g-missing has no bundle at all
	writeBundle(t, dataDir, "g-corrupt", map[string]string{"readme.txt": "no index"})
	writeBundle(t, dataDir, "g-rejected", simpleBundle("Rejected"))
	writeBundle(t, dataDir, "g-ok", simpleBundle("Fine"))

	docs := []models.DocumentRecord{
		record("g-missing", "/A/", "Missing"),
		record("g-corrupt", "/A/", "Corrupt"),
		record("g-rejected", "/A/", "Rejected"),
		record("g-ok", "/A/", "Fine"),
	}
	catalog := &models.Catalog{
		DataDir: dataDir,
		Groups:  []models.FolderGroup{{Location: "/A/", Documents: docs}},
	}

	h := models.NewRemoteHierarchy("nb")
	require.NoError(t, h.AddSection("/A/", "sec-A"))
	h.Seal()

	api := mock_onenote.NewMockAPI(ctrl)
	gomock.InOrder(
		api.EXPECT().CreatePage(gomock.Any(), "sec-A", gomock.Any(), gomock.Any()).
			Return("", fmt.Errorf("too many images: %w", models.ErrRemoteRejected)),
		api.EXPECT().CreatePage(gomock.Any(), "sec-A", gomock.Any(), gomock.Any()).
			Return("page-ok", nil),
	)

	report, err := newPipeline(api, Options{}).Run(context.Background(), h, catalog)
	require.NoError(t, err)

	require.Len(t, report.Results, 4)
	assert.ErrorIs(t, report.Results[0].Err, models.ErrDocumentNotFound)
	assert.ErrorIs(t, report.Results[1].Err, models.ErrCorruptBundle)
	assert.ErrorIs(t, report.Results[2].Err, models.ErrRemoteRejected)
	assert.NoError(t, report.Results[3].Err)
	assert.Equal(t, "page-ok", report.Results[3].PageID)

	assert.Equal(t, 1, report.Succeeded())
	failures := report.Failures()
	require.Len(t, failures, 3)
	assert.Equal(t, "g-missing", failures[0].Document.GUID)
	assert.Equal(t, "sec-A", failures[0].SectionID)
}

func TestRunConcurrentUploads(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	dataDir := t.TempDir()
	catalog := &models.Catalog{DataDir: dataDir}
	h := models.NewRemoteHierarchy("nb")
	for f := 0; f < 3; f++ {
		loc := fmt.Sprintf("/F%d/", f)
		group := models.FolderGroup{Location: loc}
		for d := 0; d < 4; d++ {
			guid := fmt.Sprintf("g-%d-%d", f, d)
			writeBundle(t, dataDir, guid, simpleBundle(guid))
			group.Documents = append(group.Documents, record(guid, loc, guid))
		}
		catalog.Groups = append(catalog.Groups, group)
		require.NoError(t, h.AddSection(loc, "sec-"+loc))
	}
	h.Seal()

	var mu sync.Mutex
	perSection := map[string]int{}

	api := mock_onenote.NewMockAPI(ctrl)
	api.EXPECT().CreatePage(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(ctx context.Context, sectionID string, body io.Reader, contentType string) (string, error) {
			mu.Lock()
			defer mu.Unlock()
			perSection[sectionID]++
			return "page", nil
		}).Times(12)

	report, err := newPipeline(api, Options{Workers: 4}).Run(context.Background(), h, catalog)
	require.NoError(t, err)

	assert.Equal(t, 12, report.Succeeded())
	assert.Equal(t, map[string]int{"sec-/F0/": 4, "sec-/F1/": 4, "sec-/F2/": 4}, perSection)

	// results keep discovery order regardless of completion order
	for i, res := range report.Results {
		assert.Equal(t, catalog.Documents()[i].GUID, res.Document.GUID)
	}
}

func TestRunRequiresCompleteHierarchy(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	catalog := testCatalog("/A/", "/B/")
	h := models.NewRemoteHierarchy("nb")
	require.NoError(t, h.AddSection("/A/", "sec-A"))
	h.Seal()

	// no upload may start
	api := mock_onenote.NewMockAPI(ctrl)
	report, err := newPipeline(api, Options{}).Run(context.Background(), h, catalog)
	assert.Nil(t, report)
	assert.ErrorIs(t, err, models.ErrHierarchyIncomplete)
}

func TestRunCanceled(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	dataDir := t.TempDir()
	writeBundle(t, dataDir, "g-1", simpleBundle("One"))
	catalog := &models.Catalog{
		DataDir: dataDir,
		Groups:  []models.FolderGroup{{Location: "/A/", Documents: []models.DocumentRecord{record("g-1", "/A/", "One")}}},
	}
	h := models.NewRemoteHierarchy("nb")
	require.NoError(t, h.AddSection("/A/", "sec-A"))
	h.Seal()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	api := mock_onenote.NewMockAPI(ctrl)
	report, err := newPipeline(api, Options{}).Run(ctx, h, catalog)
	require.NoError(t, err)
	assert.ErrorIs(t, report.Results[0].Err, context.Canceled)
}

func TestRunSavesOutput(t *testing.T) {
	dataDir := t.TempDir()
	outputDir := t.TempDir()
	writeBundle(t, dataDir, "g-1", simpleBundle("One"))

	catalog := &models.Catalog{
		DataDir: dataDir,
		Groups:  []models.FolderGroup{{Location: "/Work/2020/", Documents: []models.DocumentRecord{record("g-1", "/Work/2020/", "One")}}},
	}

	api := &onenote.DryRun{}
	h, err := NewHierarchyBuilder(api).Build(context.Background(), "Dry", catalog)
	require.NoError(t, err)

	report, err := newPipeline(api, Options{OutputDir: outputDir}).Run(context.Background(), h, catalog)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Succeeded())

	page, err := os.ReadFile(filepath.Join(outputDir, "Work-2020", "g-1.html"))
	require.NoError(t, err)
	assert.Contains(t, string(page), "<title>One</title>")

	img, err := os.ReadFile(filepath.Join(outputDir, "Work-2020", "g-1_files", "pic.png"))
	require.NoError(t, err)
	assert.Equal(t, "png-One", string(img))
}
