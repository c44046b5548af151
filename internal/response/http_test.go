package response

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOK(t *testing.T) {
	body, err := json.Marshal(OK("done", []int{1, 2}))
	require.NoError(t, err)
	assert.JSONEq(t, `{"success":true,"message":"done","data":[1,2]}`, string(body))
}

func TestErrorOmitsEmptyDetails(t *testing.T) {
	body, err := json.Marshal(Error("bad request"))
	require.NoError(t, err)
	assert.JSONEq(t, `{"error":"bad request"}`, string(body))

	body, err = json.Marshal(Error("invalid request payload", "Kind failed on oneof", "Contracts failed on required"))
	require.NoError(t, err)
	assert.JSONEq(t, `{"error":"invalid request payload","details":["Kind failed on oneof","Contracts failed on required"]}`, string(body))
}
