package server

import (
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"resumeforge/internal/errors"

	"github.com/fsnotify/fsnotify"
)

const defaultDebounceDelay = time.Second

// CertReloader serves a TLS key pair loaded from disk and reloads it when
// either file changes. A failed reload keeps the previous certificate.
type CertReloader struct {
	certFile string
	keyFile  string
	logger   *errors.Logger

	mu          sync.RWMutex
	cert        *tls.Certificate
	notAfter    time.Time
	reloads     int
	lastReload  time.Time
	lastError   string
	watcher     *fsnotify.Watcher
	debounce    *time.Timer
	stopChan    chan struct{}
	stoppedOnce sync.Once
}

// NewCertReloader loads the key pair once.
func NewCertReloader(certFile, keyFile string, logger *errors.Logger) (*CertReloader, error) {
	cr := &CertReloader{
		certFile: certFile,
		keyFile:  keyFile,
		logger:   logger,
		stopChan: make(chan struct{}),
	}
	if err := cr.Reload(); err != nil {
		return nil, err
	}
	return cr, nil
}

// Reload reads the key pair from disk.
func (cr *CertReloader) Reload() error {
	cert, err := tls.LoadX509KeyPair(cr.certFile, cr.keyFile)
	if err != nil {
		cr.mu.Lock()
		cr.lastError = err.Error()
		cr.mu.Unlock()
		return fmt.Errorf("failed to load TLS key pair: %w", err)
	}

	var notAfter time.Time
	if leaf, err := x509.ParseCertificate(cert.Certificate[0]); err == nil {
		notAfter = leaf.NotAfter
	}

	cr.mu.Lock()
	cr.cert = &cert
	cr.notAfter = notAfter
	cr.reloads++
	cr.lastReload = time.Now()
	cr.lastError = ""
	cr.mu.Unlock()

	cr.logger.Info("TLS certificate loaded", "cert_file", cr.certFile, "not_after", notAfter)
	return nil
}

// GetCertificate implements tls.Config.GetCertificate.
func (cr *CertReloader) GetCertificate(*tls.ClientHelloInfo) (*tls.Certificate, error) {
	cr.mu.RLock()
	defer cr.mu.RUnlock()
	return cr.cert, nil
}

// Watch reloads the key pair on changes to either file. Directories are
// watched so atomic renames are seen too.
func (cr *CertReloader) Watch(debounceDelay time.Duration) error {
	if debounceDelay <= 0 {
		debounceDelay = defaultDebounceDelay
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}

	dirs := map[string]bool{filepath.Dir(cr.certFile): true, filepath.Dir(cr.keyFile): true}
	for dir := range dirs {
		if err := watcher.Add(dir); err != nil {
			_ = watcher.Close()
			return fmt.Errorf("failed to watch directory %s: %w", dir, err)
		}
	}

	cr.mu.Lock()
	cr.watcher = watcher
	cr.mu.Unlock()

	go cr.watchLoop(watcher, debounceDelay)
	cr.logger.Info("Certificate file watcher started",
		"files", []string{cr.certFile, cr.keyFile},
		"debounce_delay", debounceDelay)
	return nil
}

func (cr *CertReloader) watchLoop(watcher *fsnotify.Watcher, debounceDelay time.Duration) {
	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if cr.isWatched(event) {
				cr.scheduleReload(debounceDelay)
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			cr.logger.LogError(err, "File watcher error")
		case <-cr.stopChan:
			return
		}
	}
}

func (cr *CertReloader) isWatched(event fsnotify.Event) bool {
	if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
		return false
	}
	name := filepath.Clean(event.Name)
	return name == filepath.Clean(cr.certFile) || name == filepath.Clean(cr.keyFile)
}

func (cr *CertReloader) scheduleReload(delay time.Duration) {
	cr.mu.Lock()
	defer cr.mu.Unlock()

	if cr.debounce != nil {
		cr.debounce.Stop()
	}
	cr.debounce = time.AfterFunc(delay, func() {
		if err := cr.Reload(); err != nil {
			cr.logger.LogError(err, "Certificate reload failed, keeping previous certificate")
		}
	})
}

// Status reports the loaded certificate for the health endpoint.
func (cr *CertReloader) Status() map[string]any {
	cr.mu.RLock()
	defer cr.mu.RUnlock()

	status := map[string]any{
		"reload_count":     cr.reloads,
		"last_reload":      cr.lastReload,
		"auto_reload":      cr.watcher != nil,
		"healthy":          true,
		"expires_at":       cr.notAfter,
		"expires_in_hours": int(time.Until(cr.notAfter).Hours()),
	}
	if cr.lastError != "" {
		status["last_error"] = cr.lastError
	}
	if time.Until(cr.notAfter) <= 0 {
		status["healthy"] = false
	}
	return status
}

// Stop stops watching. It is safe to call more than once.
func (cr *CertReloader) Stop() error {
	var err error
	cr.stoppedOnce.Do(func() {
		close(cr.stopChan)

		cr.mu.Lock()
		defer cr.mu.Unlock()
		if cr.debounce != nil {
			cr.debounce.Stop()
		}
		if cr.watcher != nil {
			err = cr.watcher.Close()
		}
	})
	return err
}
