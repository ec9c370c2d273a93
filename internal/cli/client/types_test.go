package client

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserRef_Unmarshal(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want UserRef
	}{
		{name: "id", raw: `"u1"`, want: UserRef{User{ID: "u1"}}},
		{name: "object", raw: `{"_id":"u1","name":"Ada","email":"ada@x.com"}`, want: UserRef{User{ID: "u1", Name: "Ada", Email: "ada@x.com"}}},
		{name: "null", raw: `null`, want: UserRef{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var ref UserRef
			require.NoError(t, json.Unmarshal([]byte(tt.raw), &ref))
			assert.Equal(t, tt.want, ref)
		})
	}
}

func TestProjectRef_Unmarshal(t *testing.T) {
	var ref ProjectRef
	require.NoError(t, json.Unmarshal([]byte(`"p1"`), &ref))
	assert.Equal(t, ProjectRef{ID: "p1"}, ref)

	require.NoError(t, json.Unmarshal([]byte(`{"_id":"p1","title":"Website","description":"ignored"}`), &ref))
	assert.Equal(t, ProjectRef{ID: "p1", Title: "Website"}, ref)

	assert.Error(t, json.Unmarshal([]byte(`42`), &ref))
}

func TestRefs_MarshalKeepsShape(t *testing.T) {
	data, err := json.Marshal(ProjectRef{ID: "p1"})
	require.NoError(t, err)
	assert.JSONEq(t, `"p1"`, string(data))

	data, err = json.Marshal(ProjectRef{ID: "p1", Title: "Website"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"_id":"p1","title":"Website"}`, string(data))

	data, err = json.Marshal(UserRef{User{ID: "u1", Name: "Ada"}})
	require.NoError(t, err)
	assert.JSONEq(t, `{"_id":"u1","name":"Ada","email":""}`, string(data))
}

func TestTaskStatus_Valid(t *testing.T) {
	for _, status := range Statuses {
		assert.True(t, status.Valid())
	}
	assert.False(t, TaskStatus("Done").Valid())
	assert.False(t, TaskStatus("").Valid())
}
