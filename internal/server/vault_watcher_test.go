package server

import (
	"fmt"
	"testing"
	"time"

	"resumelens/internal/config"
)

type fakeVaultClient struct {
	secrets map[string]*config.VaultSecret
}

func (f *fakeVaultClient) GetSecretV2(path string) (*config.VaultSecret, error) {
	secret, ok := f.secrets[path]
	if !ok {
		return nil, fmt.Errorf("no secret at %s", path)
	}
	return secret, nil
}

func (f *fakeVaultClient) GetStringSecret(path, key string) (string, error) {
	secret, err := f.GetSecretV2(path)
	if err != nil {
		return "", err
	}
	value, _ := secret.Data[key].(string)
	return value, nil
}

func (f *fakeVaultClient) GetStringSliceSecret(path, key string) ([]string, error) {
	secret, err := f.GetSecretV2(path)
	if err != nil {
		return nil, err
	}
	value, _ := secret.Data[key].([]string)
	return value, nil
}

func TestAPIKeyWatcherPollDeliversRotatedKeys(t *testing.T) {
	client := &fakeVaultClient{
		secrets: map[string]*config.VaultSecret{
			"secret/data/api-keys": {
				Data:    map[string]any{"keys": []string{"key-one", "key-two"}},
				Version: 1,
			},
		},
	}

	var gotKeys []string
	var gotErr error
	aw := NewAPIKeyWatcher(client, "secret/data/api-keys", time.Minute, func(keys []string, err error) {
		gotKeys, gotErr = keys, err
	}, nil)

	aw.poll()

	if gotErr != nil {
		t.Fatalf("poll delivered error: %v", gotErr)
	}
	if len(gotKeys) != 2 || gotKeys[0] != "key-one" || gotKeys[1] != "key-two" {
		t.Errorf("poll delivered wrong keys: %v", gotKeys)
	}

	// Same version again: the callback must not fire.
	gotKeys = nil
	aw.poll()
	if gotKeys != nil {
		t.Errorf("poll fired callback without a version change: %v", gotKeys)
	}
}

func TestAPIKeyWatcherCheckForUpdates(t *testing.T) {
	client := &fakeVaultClient{
		secrets: map[string]*config.VaultSecret{
			"secret/data/api-keys": {Data: map[string]any{}, Version: 2},
		},
	}
	aw := NewAPIKeyWatcher(client, "secret/data/api-keys", time.Minute, func([]string, error) {}, nil)

	changed, err := aw.checkForUpdates()
	if err != nil {
		t.Fatalf("checkForUpdates failed: %v", err)
	}
	if !changed {
		t.Error("expected the initial check to detect version 2")
	}

	changed, err = aw.checkForUpdates()
	if err != nil {
		t.Fatalf("checkForUpdates failed: %v", err)
	}
	if changed {
		t.Error("expected no change while the version stays at 2")
	}
}

func TestAPIKeyWatcherStartStop(t *testing.T) {
	client := &fakeVaultClient{secrets: map[string]*config.VaultSecret{}}
	aw := NewAPIKeyWatcher(client, "secret/data/api-keys", time.Minute, func([]string, error) {}, nil)

	if err := aw.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if err := aw.Start(); err == nil {
		t.Error("expected error starting an already running watcher")
	}
	if err := aw.Stop(); err != nil {
		t.Fatalf("Stop failed: %v", err)
	}
	// Stop is idempotent
	if err := aw.Stop(); err != nil {
		t.Fatalf("second Stop failed: %v", err)
	}
}
