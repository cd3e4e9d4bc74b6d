package settings

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"strings"
	"sync"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"aishell/internal/auth"
	"aishell/pkg/shelltypes"
)

const expectedURL = "https://storage.googleapis.com/storage/v1/b/test-project-gemini-cli-settings/o/settings.json?alt=media"

type fakeRequester struct {
	resp  *auth.Response
	err   error
	calls []auth.RequestOptions
}

func (f *fakeRequester) Request(_ context.Context, opts auth.RequestOptions) (*auth.Response, error) {
	f.calls = append(f.calls, opts)
	return f.resp, f.err
}

type fakeClientProvider struct {
	requester *fakeRequester
	err       error
	calls     int
	authType  shelltypes.AuthType
	sess      auth.SessionConfig
}

func (f *fakeClientProvider) GetClient(_ context.Context, authType shelltypes.AuthType, sess auth.SessionConfig) (auth.Requester, error) {
	f.calls++
	f.authType = authType
	f.sess = sess
	if f.err != nil {
		return nil, f.err
	}
	return f.requester, nil
}

type fakeSession struct{}

func (fakeSession) HTTPClient() *http.Client { return http.DefaultClient }

type fixture struct {
	service   *CloudSettingsService
	provider  *fakeClientProvider
	requester *fakeRequester
	logs      *bytes.Buffer
}

// newFixture builds a service whose logger only records error-level entries.
func newFixture(env map[string]string, level log.Level) *fixture {
	requester := &fakeRequester{}
	provider := &fakeClientProvider{requester: requester}
	logs := &bytes.Buffer{}
	service := NewCloudSettingsService(
		WithClientProvider(provider),
		WithGetenv(func(key string) string { return env[key] }),
		WithLogger(log.NewWithOptions(logs, log.Options{Level: level})),
	)
	return &fixture{service: service, provider: provider, requester: requester, logs: logs}
}

func projectEnv() map[string]string {
	return map[string]string{"GOOGLE_CLOUD_PROJECT": "test-project"}
}

func TestSettingsURL(t *testing.T) {
	assert.Equal(t, expectedURL, SettingsURL("test-project"))
}

func TestLoadSettings_Success(t *testing.T) {
	f := newFixture(projectEnv(), log.ErrorLevel)
	f.requester.resp = &auth.Response{Status: http.StatusOK, Data: map[string]any{"foo": "bar"}}
	sess := fakeSession{}

	doc := f.service.LoadSettings(context.Background(), sess, shelltypes.AuthTypeLoginWithGoogle)

	assert.Equal(t, Document{"foo": "bar"}, doc)
	assert.Equal(t, 1, f.provider.calls)
	assert.Equal(t, shelltypes.AuthTypeLoginWithGoogle, f.provider.authType)
	assert.Equal(t, sess, f.provider.sess)
	require.Len(t, f.requester.calls, 1)
	assert.Equal(t, auth.RequestOptions{URL: expectedURL, Method: http.MethodGet}, f.requester.calls[0])
	assert.Empty(t, f.logs.String())
}

func TestLoadSettings_SecondaryProjectVariable(t *testing.T) {
	f := newFixture(map[string]string{"GOOGLE_CLOUD_PROJECT_ID": "other"}, log.ErrorLevel)
	f.requester.resp = &auth.Response{Status: http.StatusOK, Data: map[string]any{}}

	doc := f.service.LoadSettings(context.Background(), fakeSession{}, shelltypes.AuthTypeLoginWithGoogle)

	assert.NotNil(t, doc)
	require.Len(t, f.requester.calls, 1)
	assert.Equal(t, SettingsURL("other"), f.requester.calls[0].URL)
}

func TestLoadSettings_NoProject(t *testing.T) {
	f := newFixture(map[string]string{"GOOGLE_CLOUD_PROJECT": "", "GOOGLE_CLOUD_PROJECT_ID": ""}, log.ErrorLevel)

	doc := f.service.LoadSettings(context.Background(), fakeSession{}, shelltypes.AuthTypeLoginWithGoogle)

	assert.Nil(t, doc)
	assert.Equal(t, 0, f.provider.calls)
	assert.Empty(t, f.requester.calls)
}

func TestLoadSettings_ExpectedAbsence(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{name: "forbidden as top-level code", err: &auth.RequestError{Code: http.StatusForbidden}},
		{name: "not found as response status", err: &auth.RequestError{ResponseStatus: http.StatusNotFound}},
		{name: "not found as top-level code", err: &auth.RequestError{Code: http.StatusNotFound}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(projectEnv(), log.ErrorLevel)
			f.requester.err = tt.err

			doc := f.service.LoadSettings(context.Background(), fakeSession{}, shelltypes.AuthTypeLoginWithGoogle)

			assert.Nil(t, doc)
			assert.Empty(t, f.logs.String(), "no error-level log for expected absence")
		})
	}
}

func TestLoadSettings_ExpectedAbsenceLogsAtDebug(t *testing.T) {
	f := newFixture(projectEnv(), log.DebugLevel)
	f.requester.err = &auth.RequestError{Code: http.StatusForbidden}

	f.service.LoadSettings(context.Background(), fakeSession{}, shelltypes.AuthTypeLoginWithGoogle)

	assert.Contains(t, f.logs.String(), "No remote settings for project")
	assert.NotContains(t, f.logs.String(), "ERRO")
}

func TestLoadSettings_OtherErrors(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{name: "server error", err: &auth.RequestError{Code: 500, ResponseStatus: 500}},
		{name: "plain error", err: errors.New("connection reset")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(projectEnv(), log.ErrorLevel)
			f.requester.err = tt.err

			assert.Nil(t, f.service.LoadSettings(context.Background(), fakeSession{}, shelltypes.AuthTypeLoginWithGoogle))
			assert.Empty(t, f.logs.String())
		})
	}
}

func TestLoadSettings_ClientProviderError(t *testing.T) {
	f := newFixture(projectEnv(), log.ErrorLevel)
	f.provider.err = auth.ErrInteractionRequired

	doc := f.service.LoadSettings(context.Background(), fakeSession{}, shelltypes.AuthTypeLoginWithGoogle)

	assert.Nil(t, doc)
	assert.Empty(t, f.requester.calls)
	assert.Empty(t, f.logs.String())
}

func TestLoadSettings_NoClientProvider(t *testing.T) {
	s := NewCloudSettingsService(
		WithGetenv(func(string) string { return "test-project" }),
		WithLogger(log.NewWithOptions(&bytes.Buffer{}, log.Options{})),
	)
	assert.Nil(t, s.LoadSettings(context.Background(), fakeSession{}, shelltypes.AuthTypeLoginWithGoogle))
}

func TestLoadSettings_InvalidJSON(t *testing.T) {
	f := newFixture(projectEnv(), log.ErrorLevel)
	f.requester.resp = &auth.Response{Status: http.StatusOK, Data: "invalid-json"}

	doc := f.service.LoadSettings(context.Background(), fakeSession{}, shelltypes.AuthTypeLoginWithGoogle)

	assert.Nil(t, doc)
	output := f.logs.String()
	assert.Contains(t, output, "Failed to parse settings.json")
	assert.Equal(t, 1, strings.Count(output, "\n"), "exactly one error-level entry")
}

func TestLoadSettings_NonObjectPayloads(t *testing.T) {
	payloads := []any{[]any{"a"}, float64(42), true, nil}

	for _, payload := range payloads {
		f := newFixture(projectEnv(), log.ErrorLevel)
		f.requester.resp = &auth.Response{Status: http.StatusOK, Data: payload}

		assert.Nil(t, f.service.LoadSettings(context.Background(), fakeSession{}, shelltypes.AuthTypeLoginWithGoogle))
		assert.Contains(t, f.logs.String(), "Failed to parse settings.json")
	}
}

func TestLoadSettings_Non200Status(t *testing.T) {
	for _, status := range []int{http.StatusInternalServerError, http.StatusNoContent, http.StatusAccepted} {
		f := newFixture(projectEnv(), log.ErrorLevel)
		f.requester.resp = &auth.Response{Status: status}

		assert.Nil(t, f.service.LoadSettings(context.Background(), fakeSession{}, shelltypes.AuthTypeLoginWithGoogle))
		assert.Empty(t, f.logs.String())
	}
}

func TestLoadSettings_NoCaching(t *testing.T) {
	f := newFixture(projectEnv(), log.ErrorLevel)
	f.requester.resp = &auth.Response{Status: http.StatusOK, Data: map[string]any{"v": float64(1)}}

	f.service.LoadSettings(context.Background(), fakeSession{}, shelltypes.AuthTypeLoginWithGoogle)
	f.service.LoadSettings(context.Background(), fakeSession{}, shelltypes.AuthTypeLoginWithGoogle)

	assert.Equal(t, 2, f.provider.calls)
	assert.Len(t, f.requester.calls, 2)
}

func TestCloudSettingsService_NameAndInitialize(t *testing.T) {
	s := NewCloudSettingsService(WithLogger(log.NewWithOptions(&bytes.Buffer{}, log.Options{})))
	assert.Equal(t, "cloud_settings", s.Name())
	assert.NoError(t, s.Initialize())
	assert.True(t, s.initialized)
}

func TestDefault_Singleton(t *testing.T) {
	ResetDefault()
	t.Cleanup(ResetDefault)

	first := Default()
	assert.Same(t, first, Default())

	ResetDefault()
	second := Default()
	assert.NotSame(t, first, second)
}

func TestDefault_ConcurrentFirstAccess(t *testing.T) {
	ResetDefault()
	t.Cleanup(ResetDefault)

	const workers = 32
	results := make([]*CloudSettingsService, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = Default()
		}(i)
	}
	wg.Wait()

	for _, s := range results {
		assert.Same(t, results[0], s)
	}
}

func TestDefault_FirstOptionsWin(t *testing.T) {
	ResetDefault()
	t.Cleanup(ResetDefault)

	provider := &fakeClientProvider{}
	s := Default(WithClientProvider(provider))
	again := Default(WithClientProvider(nil))

	assert.Same(t, s, again)
	assert.Equal(t, provider, again.clients)
}
