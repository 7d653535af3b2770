package mqtt

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/json"
	"encoding/pem"
	"errors"
	"math/big"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	coremetrics "github.com/kilianp07/parkagent/core/metrics"
	coremon "github.com/kilianp07/parkagent/core/monitoring"
	"github.com/kilianp07/parkagent/internal/eventbus"
)

type published struct {
	topic   string
	qos     byte
	retain  bool
	payload []byte
}

// mockClient implements pahoClient for tests.
type mockClient struct {
	mu          sync.Mutex
	opts        *paho.ClientOptions
	published   []published
	publishErrs []error
	connectErr  error
}

func (m *mockClient) IsConnected() bool { return true }

func (m *mockClient) Connect() paho.Token {
	if m.connectErr == nil && m.opts != nil && m.opts.OnConnect != nil {
		m.opts.OnConnect(nil)
	}
	return &dummyToken{err: m.connectErr}
}

func (m *mockClient) Disconnect(uint) {}

func (m *mockClient) Publish(topic string, qos byte, retained bool, payload interface{}) paho.Token {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.published = append(m.published, published{topic: topic, qos: qos, retain: retained, payload: payload.([]byte)})
	if len(m.publishErrs) > 0 {
		err := m.publishErrs[0]
		m.publishErrs = m.publishErrs[1:]
		return &dummyToken{err: err}
	}
	return &dummyToken{}
}

func (m *mockClient) sent() []published {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]published(nil), m.published...)
}

type dummyToken struct{ err error }

func (d *dummyToken) Wait() bool                     { return true }
func (d *dummyToken) WaitTimeout(time.Duration) bool { return true }
func (d *dummyToken) Done() <-chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}
func (d *dummyToken) Error() error { return d.err }

// stuckClient returns tokens that never complete.
type stuckClient struct {
	*mockClient
}

func (s *stuckClient) Publish(string, byte, bool, interface{}) paho.Token {
	return &pendingToken{done: make(chan struct{})}
}

type pendingToken struct{ done chan struct{} }

func (p *pendingToken) Wait() bool                     { <-p.done; return true }
func (p *pendingToken) WaitTimeout(time.Duration) bool { return false }
func (p *pendingToken) Done() <-chan struct{}          { return p.done }
func (p *pendingToken) Error() error                   { return nil }

type recordMonitor struct {
	mu   sync.Mutex
	err  error
	tags map[string]string
}

func (r *recordMonitor) CaptureException(err error, tags map[string]string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.err = err
	r.tags = tags
}
func (r *recordMonitor) Flush(time.Duration) {}

func withMockClient(t *testing.T, mc *mockClient) {
	t.Helper()
	newMQTTClient = func(o *paho.ClientOptions) pahoClient { mc.opts = o; return mc }
	t.Cleanup(func() {
		newMQTTClient = func(opts *paho.ClientOptions) pahoClient { return paho.NewClient(opts) }
	})
}

func TestPublisher_PublishDecision(t *testing.T) {
	mc := &mockClient{}
	withMockClient(t, mc)
	pub, err := NewPublisher(Config{Broker: "tcp://localhost:1883", Topic: "lot", QoS: 1, Retain: true})
	require.NoError(t, err)

	ev := coremetrics.DecisionEvent{DecisionID: "d1", Mode: "static", OK: true, ProviderID: "p1"}
	require.NoError(t, pub.Publish(context.Background(), ev))

	sent := mc.sent()
	require.Len(t, sent, 1)
	assert.Equal(t, "lot/decisions", sent[0].topic)
	assert.Equal(t, byte(1), sent[0].qos)
	assert.True(t, sent[0].retain)
	var got coremetrics.DecisionEvent
	require.NoError(t, json.Unmarshal(sent[0].payload, &got))
	assert.Equal(t, "p1", got.ProviderID)
}

func TestPublisher_TopicFor(t *testing.T) {
	pub := &Publisher{topic: "parkagent"}
	topic, err := pub.TopicFor(coremetrics.PaymentEvent{})
	require.NoError(t, err)
	assert.Equal(t, "parkagent/payments", topic)
	_, err = pub.TopicFor(nil)
	assert.Error(t, err)
}

func TestPublisher_Retries(t *testing.T) {
	mc := &mockClient{publishErrs: []error{errors.New("net fail"), nil}}
	withMockClient(t, mc)
	pub, err := NewPublisher(Config{Broker: "tcp://localhost:1883", MaxRetries: 1, BackoffMS: 1})
	require.NoError(t, err)

	require.NoError(t, pub.Publish(context.Background(), coremetrics.DecisionEvent{DecisionID: "d1"}))
	assert.Len(t, mc.sent(), 2)
}

func TestPublisher_FailureCaptured(t *testing.T) {
	fail := errors.New("net fail")
	mc := &mockClient{publishErrs: []error{fail, fail}}
	withMockClient(t, mc)
	mon := &recordMonitor{}
	coremon.Init(mon)
	t.Cleanup(func() { coremon.Init(coremon.NopMonitor{}) })

	pub, err := NewPublisher(Config{Broker: "tcp://localhost:1883", MaxRetries: 1, BackoffMS: 1})
	require.NoError(t, err)
	err = pub.Publish(context.Background(), coremetrics.DecisionEvent{DecisionID: "d1"})
	assert.ErrorIs(t, err, fail)
	assert.ErrorIs(t, mon.err, fail)
	assert.Equal(t, "mqtt", mon.tags["module"])
	assert.Equal(t, "parkagent/decisions", mon.tags["topic"])
}

func TestPublisher_CancelStopsBackoff(t *testing.T) {
	fail := errors.New("net fail")
	mc := &mockClient{publishErrs: []error{fail, fail, fail, fail}}
	withMockClient(t, mc)
	mon := &recordMonitor{}
	coremon.Init(mon)
	t.Cleanup(func() { coremon.Init(coremon.NopMonitor{}) })

	pub, err := NewPublisher(Config{Broker: "tcp://localhost:1883", MaxRetries: 3, BackoffMS: 60000})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(20*time.Millisecond, cancel)
	start := time.Now()
	err = pub.Publish(ctx, coremetrics.DecisionEvent{DecisionID: "d1"})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Less(t, time.Since(start), 5*time.Second)
	assert.Len(t, mc.sent(), 1)
	assert.Nil(t, mon.err)
}

func TestPublisher_CancelStopsPendingToken(t *testing.T) {
	mc := &mockClient{}
	withMockClient(t, mc)
	pub, err := NewPublisher(Config{Broker: "tcp://localhost:1883"})
	require.NoError(t, err)
	pub.cli = &stuckClient{mockClient: mc}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err = pub.Publish(ctx, coremetrics.DecisionEvent{DecisionID: "d1"})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestPublisher_ForwardStopsDuringBackoff(t *testing.T) {
	fail := errors.New("net fail")
	mc := &mockClient{publishErrs: []error{fail, fail, fail, fail}}
	withMockClient(t, mc)
	pub, err := NewPublisher(Config{Broker: "tcp://localhost:1883", MaxRetries: 3, BackoffMS: 60000})
	require.NoError(t, err)

	bus := eventbus.New[coremetrics.Event](4)
	defer bus.Close()
	ctx, cancel := context.WithCancel(context.Background())
	done := pub.Forward(ctx, bus)

	bus.Publish(coremetrics.DecisionEvent{DecisionID: "d1"})
	require.Eventually(t, func() bool { return len(mc.sent()) == 1 }, time.Second, 5*time.Millisecond)
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("forwarder kept retrying after cancel")
	}
}

func TestPublisher_ConnectError(t *testing.T) {
	withMockClient(t, &mockClient{connectErr: errors.New("refused")})
	_, err := NewPublisher(Config{Broker: "tcp://localhost:1883"})
	assert.ErrorContains(t, err, "refused")
}

func TestPublisher_Forward(t *testing.T) {
	mc := &mockClient{}
	withMockClient(t, mc)
	pub, err := NewPublisher(Config{Broker: "tcp://localhost:1883"})
	require.NoError(t, err)

	bus := eventbus.New[coremetrics.Event](4)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := pub.Forward(ctx, bus)

	bus.Publish(coremetrics.DecisionEvent{DecisionID: "d1"})
	bus.Publish(coremetrics.PaymentEvent{DecisionID: "d1"})
	require.Eventually(t, func() bool { return len(mc.sent()) == 2 }, time.Second, 10*time.Millisecond)

	bus.Close()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("forwarder did not stop")
	}
	sent := mc.sent()
	assert.Equal(t, "parkagent/decisions", sent[0].topic)
	assert.Equal(t, "parkagent/payments", sent[1].topic)
}

func TestNewClientOptions(t *testing.T) {
	opts, err := NewClientOptions(Config{Broker: "tcp://localhost:1883", ClientID: "id", Username: "u", Password: "p", LWTTopic: "lwt", LWTPayload: "bye", QoS: 1})
	require.NoError(t, err)
	assert.Equal(t, "u", opts.Username)
	assert.Equal(t, "p", opts.Password)
	assert.True(t, opts.WillEnabled)
	assert.Equal(t, "lwt", opts.WillTopic)
	assert.Equal(t, "bye", string(opts.WillPayload))

	_, err = NewClientOptions(Config{Broker: "tcp://localhost:1883", UseTLS: true})
	assert.ErrorContains(t, err, "tls config requires")
}

func TestConfig_Validate(t *testing.T) {
	assert.NoError(t, Config{}.Validate())
	assert.Error(t, Config{Enabled: true}.Validate())
	assert.Error(t, Config{Enabled: true, Broker: "tcp://x:1883", QoS: 3}.Validate())

	c := Config{Enabled: true, Broker: "tcp://x:1883"}
	c.SetDefaults()
	assert.NoError(t, c.Validate())
	assert.Equal(t, "parkagent", c.Topic)
	assert.Equal(t, 3, c.MaxRetries)
}

func TestLoadTLSConfig(t *testing.T) {
	priv, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	tmpl := x509.Certificate{SerialNumber: big.NewInt(1), Subject: pkix.Name{CommonName: "test"}, NotBefore: time.Now(), NotAfter: time.Now().Add(time.Hour)}
	der, err := x509.CreateCertificate(rand.Reader, &tmpl, &tmpl, &priv.PublicKey, priv)
	require.NoError(t, err)

	dir := t.TempDir()
	certFile := filepath.Join(dir, "cert.pem")
	keyFile := filepath.Join(dir, "key.pem")
	require.NoError(t, os.WriteFile(certFile, pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: der}), 0o644))
	require.NoError(t, os.WriteFile(keyFile, pem.EncodeToMemory(&pem.Block{Type: "RSA PRIVATE KEY", Bytes: x509.MarshalPKCS1PrivateKey(priv)}), 0o644))

	tlsCfg, err := Config{ClientCert: certFile, ClientKey: keyFile, CABundle: certFile}.LoadTLSConfig()
	require.NoError(t, err)
	assert.Len(t, tlsCfg.Certificates, 1)
	assert.NotNil(t, tlsCfg.RootCAs)
}
