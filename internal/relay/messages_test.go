package relay

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeRequestValidation(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		wantErr bool
	}{
		{name: "execute", payload: `{"requestId":"r","sessionId":"s","userId":"u","operation":"execute","command":"ls","replyTo":"c"}`},
		{name: "end session without user", payload: `{"requestId":"r","sessionId":"s","operation":"end_session"}`},
		{name: "execute without reply channel", payload: `{"requestId":"r","sessionId":"s","userId":"u","operation":"execute"}`, wantErr: true},
		{name: "execute without user", payload: `{"requestId":"r","sessionId":"s","operation":"execute","replyTo":"c"}`, wantErr: true},
		{name: "unknown operation", payload: `{"requestId":"r","sessionId":"s","operation":"rm_rf"}`, wantErr: true},
		{name: "missing request id", payload: `{"sessionId":"s","operation":"end_session"}`, wantErr: true},
		{name: "garbage", payload: `{{`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeRequest([]byte(tt.payload))
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestDecodeResponse(t *testing.T) {
	resp, err := DecodeResponse([]byte(`{"requestId":"r","sessionId":"s","success":false,"output":"","error":"nope","clear":true}`))
	require.NoError(t, err)
	assert.Equal(t, Response{RequestID: "r", SessionID: "s", Error: "nope", Clear: true}, resp)

	_, err = DecodeResponse([]byte(`{"output":"x"}`))
	assert.Error(t, err)
}

func TestCommandLineFromArgs(t *testing.T) {
	assert.Equal(t, "ls", commandLine(Request{Command: "ls", Args: []string{"ignored"}}))
	assert.Equal(t, "echo a b", commandLine(Request{Args: []string{"echo", "a", "b"}}))
	assert.Equal(t, "", commandLine(Request{}))
}
