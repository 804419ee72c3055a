package updater

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/Masterminds/semver"
	"github.com/google/uuid"

	"ramandpid/internal/fileutil"
	"ramandpid/internal/logging"
)

// ErrUpToDate means the installed release already matches or exceeds the
// published one.
var ErrUpToDate = errors.New("already up to date")

// Manifest is the published release descriptor.
type Manifest struct {
	Version     string `json:"version"`
	DownloadURL string `json:"download_url"`
	SHA256      string `json:"sha256,omitempty"`
	Notes       string `json:"notes,omitempty"`
}

// SemVersion parses the manifest version, tolerating a leading v.
func (m *Manifest) SemVersion() (*semver.Version, error) {
	v, err := semver.NewVersion(strings.TrimPrefix(m.Version, "v"))
	if err != nil {
		return nil, fmt.Errorf("manifest version %q: %w", m.Version, err)
	}
	return v, nil
}

// Client checks for and applies application updates. Releases are zip
// archives unpacked into per-version folders under the install root; the
// installed version is tracked in a version file next to them.
type Client struct {
	manifestURL string
	installRoot string
	versionFile string
	httpClient  *http.Client
	logger      *slog.Logger
}

// New builds a client. The timeout bounds each HTTP request.
func New(manifestURL, installRoot, versionFile string, timeout time.Duration, logger *slog.Logger) *Client {
	if timeout <= 0 {
		timeout = 5 * time.Minute
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Client{
		manifestURL: manifestURL,
		installRoot: installRoot,
		versionFile: versionFile,
		httpClient:  &http.Client{Timeout: timeout},
		logger:      logging.WithComponent(logger, "updater"),
	}
}

// FetchManifest downloads and decodes the release manifest.
func (c *Client) FetchManifest(ctx context.Context) (*Manifest, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.manifestURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build manifest request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch manifest: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch manifest: unexpected status %s", resp.Status)
	}

	var manifest Manifest
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&manifest); err != nil {
		return nil, fmt.Errorf("decode manifest: %w", err)
	}
	if manifest.Version == "" || manifest.DownloadURL == "" {
		return nil, errors.New("manifest missing version or download_url")
	}
	return &manifest, nil
}

// LocalVersion reads the installed version. A missing version file returns
// nil without error, meaning nothing is installed yet.
func (c *Client) LocalVersion() (*semver.Version, error) {
	data, err := os.ReadFile(c.versionFile)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read version file: %w", err)
	}
	v, err := semver.NewVersion(strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(string(data)), "v")))
	if err != nil {
		return nil, fmt.Errorf("version file %s: %w", c.versionFile, err)
	}
	return v, nil
}

// Check fetches the manifest and compares it to the installed version. It
// returns the manifest when the published release is strictly newer, and
// ErrUpToDate otherwise. A missing local install always counts as stale.
func (c *Client) Check(ctx context.Context) (*Manifest, error) {
	manifest, err := c.FetchManifest(ctx)
	if err != nil {
		return nil, err
	}
	remote, err := manifest.SemVersion()
	if err != nil {
		return nil, err
	}
	local, err := c.LocalVersion()
	if err != nil {
		return nil, err
	}
	if local != nil && !remote.GreaterThan(local) {
		return manifest, fmt.Errorf("%w: installed %s, published %s", ErrUpToDate, local, remote)
	}
	c.logger.Info("update available",
		slog.String(logging.FieldVersion, remote.String()))
	return manifest, nil
}

// Apply downloads the release archive, optionally verifies its checksum,
// unpacks it into a fresh version folder, and records the new version.
// The progress callback, if set, receives downloaded and total byte counts.
// The returned path is the unpacked version folder.
func (c *Client) Apply(ctx context.Context, manifest *Manifest, progress func(done, total int64)) (string, error) {
	remote, err := manifest.SemVersion()
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(c.installRoot, 0o755); err != nil {
		return "", fmt.Errorf("create install root: %w", err)
	}

	archive := filepath.Join(c.installRoot, ".download-"+uuid.NewString()+".zip")
	defer os.Remove(archive)
	if err := c.download(ctx, manifest, archive, progress); err != nil {
		return "", err
	}

	target := filepath.Join(c.installRoot, "v"+remote.String())
	if err := os.RemoveAll(target); err != nil {
		return "", fmt.Errorf("clear version folder: %w", err)
	}
	if err := fileutil.ExtractZip(archive, target); err != nil {
		return "", fmt.Errorf("unpack release: %w", err)
	}
	if err := fileutil.WriteFileAtomic(c.versionFile, []byte(remote.String()+"\n"), 0o644); err != nil {
		return "", fmt.Errorf("record version: %w", err)
	}
	c.logger.Info("release installed",
		slog.String(logging.FieldVersion, remote.String()),
		slog.String(logging.FieldPath, target))
	return target, nil
}

func (c *Client) download(ctx context.Context, manifest *Manifest, dest string, progress func(done, total int64)) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, manifest.DownloadURL, nil)
	if err != nil {
		return fmt.Errorf("build download request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("download release: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("download release: unexpected status %s", resp.Status)
	}

	out, err := os.OpenFile(dest, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return fmt.Errorf("create download file: %w", err)
	}

	hasher := sha256.New()
	reader := io.Reader(io.TeeReader(resp.Body, hasher))
	if progress != nil {
		reader = &progressReader{r: reader, total: resp.ContentLength, report: progress}
	}
	if _, err := io.Copy(out, reader); err != nil {
		out.Close()
		return fmt.Errorf("write download: %w", err)
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("close download: %w", err)
	}

	if manifest.SHA256 != "" {
		sum := hex.EncodeToString(hasher.Sum(nil))
		if !strings.EqualFold(sum, manifest.SHA256) {
			return fmt.Errorf("checksum mismatch: got %s, manifest says %s", sum, manifest.SHA256)
		}
	}
	return nil
}

type progressReader struct {
	r      io.Reader
	done   int64
	total  int64
	report func(done, total int64)
}

func (p *progressReader) Read(buf []byte) (int, error) {
	n, err := p.r.Read(buf)
	if n > 0 {
		p.done += int64(n)
		p.report(p.done, p.total)
	}
	return n, err
}
