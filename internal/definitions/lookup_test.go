package definitions

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/stagegraph/internal/pipeerr"
)

const catalogJSON = `{
  "stages": [
    {"name": "dev_RawDataDSource", "label": "Dev Raw Data Source", "type": "SOURCE", "library": "dev-lib", "version": "3"},
    {"name": "basic_Trash", "label": "Trash", "type": "TARGET", "library": "basic-lib", "version": "1"},
    {"name": "other_Trash", "label": "Trash", "type": "TARGET", "library": "other-lib", "version": "1"},
    {"name": "basic_ToError", "label": "Discard", "type": "TARGET", "library": "basic-lib", "version": "1", "errorStage": true}
  ],
  "services": [
    {"provides": "DataFormatParserService", "version": "1"}
  ]
}`

func loadCatalog(t *testing.T) *Definitions {
	t.Helper()
	defs, err := Load(context.Background(), strings.NewReader(catalogJSON))
	require.NoError(t, err)
	return defs
}

func TestLoad(t *testing.T) {
	defs := loadCatalog(t)
	assert.Len(t, defs.Stages, 4)
	assert.True(t, defs.Stages[3].ErrorStage)
	assert.Equal(t, "3", defs.Stages[0].Version)

	_, err := Load(context.Background(), strings.NewReader("{"))
	assert.ErrorContains(t, err, "failed to decode definitions")
}

func TestSelect(t *testing.T) {
	defs := loadCatalog(t)

	testCases := []struct {
		name      string
		sel       Selector
		wantNames []string
		wantErr   error
	}{
		{name: "by label", sel: Selector{Label: "Trash"}, wantNames: []string{"basic_Trash", "other_Trash"}},
		{name: "by label and library", sel: Selector{Label: "Trash", Library: "other-lib"}, wantNames: []string{"other_Trash"}},
		{name: "by name", sel: Selector{Name: "dev_RawDataDSource"}, wantNames: []string{"dev_RawDataDSource"}},
		{name: "friendly type", sel: Selector{Label: "Dev Raw Data Source", Type: "origin"}, wantNames: []string{"dev_RawDataDSource"}},
		{name: "type mismatch", sel: Selector{Label: "Trash", Type: "origin"}, wantErr: pipeerr.ErrNotFound},
		{name: "both label and name", sel: Selector{Label: "Trash", Name: "basic_Trash"}, wantErr: pipeerr.ErrStructural},
		{name: "neither label nor name", sel: Selector{}, wantErr: pipeerr.ErrStructural},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := defs.Select(tc.sel, nil)
			if tc.wantErr != nil {
				assert.ErrorIs(t, err, tc.wantErr)
				return
			}
			require.NoError(t, err)
			var names []string
			for _, s := range got {
				names = append(names, s.Name)
			}
			assert.Equal(t, tc.wantNames, names)
		})
	}
}

func TestSelectFirst_PicksCatalogOrder(t *testing.T) {
	defs := loadCatalog(t)
	got, err := defs.SelectFirst(Selector{Label: "Trash"}, nil)
	require.NoError(t, err)
	assert.Equal(t, "basic_Trash", got.Name)

	_, err = defs.SelectFirst(Selector{Label: "Trash"}, func(s *StageDefinition) bool { return s.ErrorStage })
	assert.ErrorIs(t, err, pipeerr.ErrNotFound)
}

func TestService(t *testing.T) {
	defs := loadCatalog(t)
	svc, err := defs.Service("DataFormatParserService")
	require.NoError(t, err)
	assert.Equal(t, "1", svc.Version)

	_, err = defs.Service("Missing")
	assert.ErrorIs(t, err, pipeerr.ErrNotFound)
}
