package aws

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"
	"time"

	awssdk "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	sestypes "github.com/aws/aws-sdk-go-v2/service/ses/types"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAWS struct {
	mu     sync.Mutex
	forms  []url.Values
	status int
	body   string
}

func (f *fakeAWS) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	raw, _ := io.ReadAll(r.Body)
	form, _ := url.ParseQuery(string(raw))
	f.mu.Lock()
	f.forms = append(f.forms, form)
	f.mu.Unlock()

	w.Header().Set("Content-Type", "text/xml")
	w.WriteHeader(f.status)
	_, _ = io.WriteString(w, f.body)
}

func (f *fakeAWS) lastForm(t *testing.T) url.Values {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	require.NotEmpty(t, f.forms)
	return f.forms[len(f.forms)-1]
}

func testConfig(endpoint string) awssdk.Config {
	return awssdk.Config{
		Region: "us-east-1",
		Credentials: awssdk.CredentialsProviderFunc(func(context.Context) (awssdk.Credentials, error) {
			return awssdk.Credentials{AccessKeyID: "AKID", SecretAccessKey: "secret"}, nil
		}),
		EndpointResolverWithOptions: StaticEndpoint(endpoint),
		RetryMaxAttempts:            1,
	}
}

func TestSESClient_AppliesConfigurationSet(t *testing.T) {
	fake := &fakeAWS{status: http.StatusOK, body: `<SendRawEmailResponse xmlns="http://ses.amazonaws.com/doc/2010-12-01/">
  <SendRawEmailResult><MessageId>0100-abc</MessageId></SendRawEmailResult>
  <ResponseMetadata><RequestId>req-1</RequestId></ResponseMetadata>
</SendRawEmailResponse>`}
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	client := NewSESClient(testConfig(srv.URL), "orders", time.Second)
	out, err := client.SendRawEmail(context.Background(), &ses.SendRawEmailInput{
		RawMessage: &sestypes.RawMessage{Data: []byte("Subject: Orden\r\n\r\nhola")},
		Source:     awssdk.String("taller@example.com"),
	})
	require.NoError(t, err)
	assert.Equal(t, "0100-abc", awssdk.ToString(out.MessageId))

	form := fake.lastForm(t)
	assert.Equal(t, "SendRawEmail", form.Get("Action"))
	assert.Equal(t, "orders", form.Get("ConfigurationSetName"))
}

func TestSNSClient_ReportsAPIErrorCode(t *testing.T) {
	fake := &fakeAWS{status: http.StatusBadRequest, body: `<ErrorResponse xmlns="http://sns.amazonaws.com/doc/2010-03-31/">
  <Error><Type>Sender</Type><Code>InvalidParameter</Code><Message>Invalid parameter: PhoneNumber</Message></Error>
  <RequestId>req-2</RequestId>
</ErrorResponse>`}
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	client := NewSNSClient(testConfig(srv.URL), time.Second)
	_, err := client.Publish(context.Background(), &sns.PublishInput{
		PhoneNumber: awssdk.String("+528340000000"),
		Message:     awssdk.String("Su orden está lista"),
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sns Publish: InvalidParameter")
	assert.Equal(t, "Publish", fake.lastForm(t).Get("Action"))
}

func TestWithTimeout_DefaultsWhenUnset(t *testing.T) {
	ctx, cancel := withTimeout(context.Background(), 0)
	defer cancel()
	deadline, ok := ctx.Deadline()
	require.True(t, ok)
	assert.WithinDuration(t, time.Now().Add(defaultRequestTimeout), deadline, time.Second)
}
