package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "airlink.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_FullConfig(t *testing.T) {
	path := writeConfig(t, `
link:
  system_id: 100
  component_id: 190
  liveness_window_ms: 5000
endpoints:
  - name: fc-serial
    transport: serial
    address: /dev/ttyUSB0
    baud_rate: 57600
  - name: ground-udp
    transport: udp
    address: 192.168.2.10:14550
    secure_key: "0101010101010101010101010101010101010101010101010101010101010101"
listeners:
  - medium: ethernet
    interface: eth0
    poll_interval_ms: 500
  - medium: usb-tether
status:
  listen: 127.0.0.1:8075
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, uint8(100), cfg.Link.SystemID)
	assert.Equal(t, 5*time.Second, cfg.Link.LivenessWindow())
	require.Len(t, cfg.Endpoints, 2)
	assert.Equal(t, 57600, cfg.Endpoints[0].BaudRate)

	key, ok := cfg.Endpoints[1].Key()
	require.True(t, ok)
	assert.Equal(t, byte(1), key[0])

	require.Len(t, cfg.Listeners, 2)
	assert.Equal(t, 500*time.Millisecond, cfg.Listeners[0].PollInterval())
	assert.Equal(t, time.Second, cfg.Listeners[1].PollInterval(), "poll interval defaults")
	assert.Equal(t, "127.0.0.1:8075", cfg.Status.Listen)
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, `{}`))
	require.NoError(t, err)

	assert.Equal(t, uint8(1), cfg.Link.SystemID)
	assert.Equal(t, uint8(1), cfg.Link.ComponentID)
	assert.Equal(t, 3*time.Second, cfg.Link.LivenessWindow())
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestValidate_Rejections(t *testing.T) {
	cases := []struct {
		name    string
		content string
		wantErr string
	}{
		{
			name: "unknown transport",
			content: `
endpoints:
  - name: x
    transport: carrier-pigeon
    address: somewhere
`,
			wantErr: "unknown transport",
		},
		{
			name: "missing address",
			content: `
endpoints:
  - name: x
    transport: udp
`,
			wantErr: "address is required",
		},
		{
			name: "duplicate name",
			content: `
endpoints:
  - name: x
    transport: udp
    address: a:1
  - name: x
    transport: udp
    address: b:2
`,
			wantErr: "duplicate name",
		},
		{
			name: "short secure key",
			content: `
endpoints:
  - name: x
    transport: udp
    address: a:1
    secure_key: "0102"
`,
			wantErr: "must be 32 bytes",
		},
		{
			name: "bad hex key",
			content: `
endpoints:
  - name: x
    transport: udp
    address: a:1
    secure_key: "zz"
`,
			wantErr: "not valid hex",
		},
		{
			name: "ethernet listener without interface",
			content: `
listeners:
  - medium: ethernet
`,
			wantErr: "interface is required",
		},
		{
			name: "unknown medium",
			content: `
listeners:
  - medium: telepathy
`,
			wantErr: "unknown medium",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tc.content))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.wantErr)
		})
	}
}
