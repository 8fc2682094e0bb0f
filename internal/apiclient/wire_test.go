package apiclient

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestParseTime(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
		want time.Time
	}{
		{"naive with micros", "2025-01-31T10:15:30.123456", time.Date(2025, 1, 31, 10, 15, 30, 123456000, time.UTC)},
		{"naive", "2025-01-31T10:15:30", time.Date(2025, 1, 31, 10, 15, 30, 0, time.UTC)},
		{"space separated", "2025-01-31 10:15:30", time.Date(2025, 1, 31, 10, 15, 30, 0, time.UTC)},
		{"rfc3339", "2025-01-31T10:15:30Z", time.Date(2025, 1, 31, 10, 15, 30, 0, time.UTC)},
		{"date only", "2025-01-31", time.Date(2025, 1, 31, 0, 0, 0, 0, time.UTC)},
		{"unix seconds", "1700000000", time.Unix(1700000000, 0).UTC()},
		{"garbage", "yesterday", time.Time{}},
		{"empty", "", time.Time{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			require.True(t, tt.want.Equal(parseTime(tt.in)), "got %v", parseTime(tt.in))
		})
	}
}

func TestFlexID_AcceptsStringsAndNumbers(t *testing.T) {
	var v struct {
		A flexID `json:"a"`
		B flexID `json:"b"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"a":"65f0c","b":42}`), &v))
	require.Equal(t, flexID("65f0c"), v.A)
	require.Equal(t, flexID("42"), v.B)
}

func TestUserJSON_FallsBackToTokenClaimsShape(t *testing.T) {
	var u userJSON
	require.NoError(t, json.Unmarshal([]byte(`{"user_id":"u1","username":"asha","role":"lawyer","is_verified":false}`), &u))

	got := u.toDomain()
	require.Equal(t, "u1", got.ID)
	require.True(t, got.IsLawyer())
	require.False(t, got.IsVerified)
}

func TestDetailMessage(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		body string
		want string
	}{
		{"string detail", `{"detail":"Chat not found"}`, "Chat not found"},
		{"validation list", `{"detail":[{"msg":"field required"},{"msg":"value is not a valid email"}]}`, "field required; value is not a valid email"},
		{"no detail", `{"error":"boom"}`, ""},
		{"not json", `<html></html>`, ""},
		{"empty", ``, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			require.Equal(t, tt.want, detailMessage([]byte(tt.body)))
		})
	}
}

func TestEncodeBody(t *testing.T) {
	raw, ct, err := encodeBody(nil)
	require.NoError(t, err)
	require.Nil(t, raw)
	require.Equal(t, "application/json", ct)

	raw, ct, err = encodeBody(map[string]string{"message": "hi"})
	require.NoError(t, err)
	require.JSONEq(t, `{"message":"hi"}`, string(raw))
	require.Equal(t, "application/json", ct)

	raw, ct, err = encodeBody(NewMultipart().Field("city", "Pune"))
	require.NoError(t, err)
	require.Contains(t, string(raw), `name="city"`)
	require.Contains(t, ct, "multipart/form-data; boundary=")

	_, _, err = encodeBody(make(chan int))
	require.Error(t, err)
}

func TestFlight_ReleasesWaitersInArrivalOrder(t *testing.T) {
	f := &flight{}
	chans := make([]chan refreshResult, 4)
	for i := range chans {
		chans[i] = make(chan refreshResult, 1)
		f.waiters = append(f.waiters, chans[i])
	}
	f.release(refreshResult{token: "A2"})
	for i, ch := range chans {
		res := <-ch
		require.Equal(t, "A2", res.token)
		require.Equal(t, i+1, res.order, "waiter %d", i)
	}
}
