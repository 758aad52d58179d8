package tlsutil

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/tls"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"math/big"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwillmer/easynetq/config"
)

func TestLoadClientTLSConfig_Disabled(t *testing.T) {
	got, err := LoadClientTLSConfig(nil)
	assert.NoError(t, err)
	assert.Nil(t, got)

	got, err = LoadClientTLSConfig(&config.TLSConfig{Enabled: false})
	assert.NoError(t, err)
	assert.Nil(t, got)
}

func TestLoadClientTLSConfig_Basic(t *testing.T) {
	got, err := LoadClientTLSConfig(&config.TLSConfig{
		Enabled:    true,
		ServerName: "rabbit1.internal",
	})
	require.NoError(t, err)
	require.NotNil(t, got)

	assert.Equal(t, "rabbit1.internal", got.ServerName)
	assert.Equal(t, uint16(tls.VersionTLS12), got.MinVersion)
	assert.NotNil(t, got.RootCAs)
}

func TestLoadClientTLSConfig_MinVersion13(t *testing.T) {
	got, err := LoadClientTLSConfig(&config.TLSConfig{Enabled: true, MinVersion: "1.3"})
	require.NoError(t, err)
	assert.Equal(t, uint16(tls.VersionTLS13), got.MinVersion)
}

func TestLoadClientTLSConfig_CustomCA(t *testing.T) {
	caFile := writeSelfSignedCA(t)

	got, err := LoadClientTLSConfig(&config.TLSConfig{
		Enabled: true,
		CAFiles: []string{caFile},
	})
	require.NoError(t, err)
	assert.NotNil(t, got.RootCAs)
}

func TestLoadClientTLSConfig_MissingCA(t *testing.T) {
	_, err := LoadClientTLSConfig(&config.TLSConfig{
		Enabled: true,
		CAFiles: []string{filepath.Join(t.TempDir(), "missing.pem")},
	})
	assert.Error(t, err)
}

func TestLoadClientTLSConfig_GarbageCA(t *testing.T) {
	path := filepath.Join(t.TempDir(), "garbage.pem")
	require.NoError(t, os.WriteFile(path, []byte("not a certificate"), 0o600))

	_, err := LoadClientTLSConfig(&config.TLSConfig{
		Enabled: true,
		CAFiles: []string{path},
	})
	assert.Error(t, err)
}

// writeSelfSignedCA generates a throwaway CA certificate PEM for tests.
func writeSelfSignedCA(t *testing.T) string {
	t.Helper()

	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)

	tmpl := x509.Certificate{
		SerialNumber:          big.NewInt(1),
		Subject:               pkix.Name{CommonName: "test-ca"},
		NotBefore:             time.Now().Add(-time.Hour),
		NotAfter:              time.Now().Add(time.Hour),
		IsCA:                  true,
		KeyUsage:              x509.KeyUsageCertSign,
		BasicConstraintsValid: true,
	}

	der, err := x509.CreateCertificate(rand.Reader, &tmpl, &tmpl, &key.PublicKey, key)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "ca.pem")
	pemData := pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: der})
	require.NoError(t, os.WriteFile(path, pemData, 0o600))
	return path
}
