package records

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmehra2102/prod-golang-projects/wardbook/internal/domain/subrecord"
)

func TestRegistry_APINames(t *testing.T) {
	r := Registry()

	var patientNames, episodeNames []string
	for _, typ := range r.PatientTypes() {
		patientNames = append(patientNames, typ.APIName)
	}
	for _, typ := range r.EpisodeTypes() {
		episodeNames = append(episodeNames, typ.APIName)
	}

	assert.Equal(t, []string{"demographics", "allergies", "past_medical_history"}, patientNames)
	assert.Equal(t, []string{"location", "diagnosis", "treatment", "microbiology_test", "general_note"}, episodeNames)
}

func TestRegistry_TableNamesMatchAPINames(t *testing.T) {
	type tabler interface{ TableName() string }
	for _, typ := range Registry().Types() {
		rec, ok := typ.New().(tabler)
		require.True(t, ok, typ.APIName)
		assert.Equal(t, typ.APIName, rec.TableName())
	}
}

func TestRegistry_Singletons(t *testing.T) {
	r := Registry()
	demo, ok := r.Lookup("demographics")
	require.True(t, ok)
	assert.True(t, demo.Single)
	assert.Equal(t, subrecord.OwnerPatient, demo.Owner)

	loc, ok := r.Lookup("location")
	require.True(t, ok)
	assert.True(t, loc.Single)

	f, ok := loc.Field("ward")
	require.True(t, ok)
	assert.Equal(t, "ward", f.LookupList)
}

func TestLookupLists(t *testing.T) {
	lists := LookupLists(Registry())
	assert.Len(t, lists, len(DefaultLookupLists))
	assert.Contains(t, lists, "destination")
	assert.IsIncreasing(t, lists)
}
