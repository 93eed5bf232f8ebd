package dynamo

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
)

const (
	errConditionalCheck = `{"__type":"com.amazonaws.dynamodb.v20120810#ConditionalCheckFailedException","message":"The conditional request failed"}`
	errTxnCanceled      = `{"__type":"com.amazonaws.dynamodb.v20120810#TransactionCanceledException","Message":"Transaction cancelled","CancellationReasons":[{"Code":"ConditionalCheckFailed","Message":"The conditional request failed"},{"Code":"None"}]}`
)

// recordedCall is one request received by fakeDynamo.
type recordedCall struct {
	Op   string
	Body map[string]interface{}
}

// fakeDynamo is an HTTP endpoint speaking the DynamoDB JSON protocol. reply
// picks the status and body for each operation; unset operations get {}.
type fakeDynamo struct {
	t     *testing.T
	mu    sync.Mutex
	calls []recordedCall
	reply map[string]func(body map[string]interface{}) (int, string)
}

func newFakeDynamo(t *testing.T) (*fakeDynamo, *dynamodb.Client) {
	t.Helper()
	f := &fakeDynamo{t: t, reply: map[string]func(map[string]interface{}) (int, string){}}
	srv := httptest.NewServer(http.HandlerFunc(f.serve))
	t.Cleanup(srv.Close)

	client := dynamodb.New(dynamodb.Options{
		Region:           "ap-south-1",
		BaseEndpoint:     aws.String(srv.URL),
		Credentials:      credentials.NewStaticCredentialsProvider("test", "test", ""),
		RetryMaxAttempts: 1,
	})
	return f, client
}

func (f *fakeDynamo) serve(w http.ResponseWriter, r *http.Request) {
	_, op, _ := strings.Cut(r.Header.Get("X-Amz-Target"), ".")
	raw, err := io.ReadAll(r.Body)
	if err != nil {
		f.t.Errorf("read body: %v", err)
	}
	body := map[string]interface{}{}
	if err := json.Unmarshal(raw, &body); err != nil {
		f.t.Errorf("decode %s body: %v", op, err)
	}

	f.mu.Lock()
	f.calls = append(f.calls, recordedCall{Op: op, Body: body})
	fn := f.reply[op]
	f.mu.Unlock()

	status, out := http.StatusOK, "{}"
	if fn != nil {
		status, out = fn(body)
	}
	w.Header().Set("Content-Type", "application/x-amz-json-1.0")
	w.WriteHeader(status)
	_, _ = io.WriteString(w, out)
}

// on sets a fixed reply for op.
func (f *fakeDynamo) on(op string, status int, body string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reply[op] = func(map[string]interface{}) (int, string) { return status, body }
}

// last returns the most recent call to op.
func (f *fakeDynamo) last(op string) (recordedCall, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := len(f.calls) - 1; i >= 0; i-- {
		if f.calls[i].Op == op {
			return f.calls[i], true
		}
	}
	return recordedCall{}, false
}

func (f *fakeDynamo) count(op string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		if c.Op == op {
			n++
		}
	}
	return n
}
