package storage

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"path"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"resumeforge/internal/config"
)

// CloudinaryStore uploads through an unsigned upload preset and deletes
// with a signed destroy call. Stored objects are public, so the key is the
// delivery URL itself.
type CloudinaryStore struct {
	cloudName    string
	apiKey       string
	apiSecret    string
	uploadPreset string
	folder       string
	baseURL      string
	client       *http.Client
	now          func() time.Time
}

func NewCloudinaryStore(cfg config.CloudinaryStorageConfig, client *http.Client) *CloudinaryStore {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = "https://api.cloudinary.com"
	}
	return &CloudinaryStore{
		cloudName:    cfg.CloudName,
		apiKey:       cfg.APIKey,
		apiSecret:    cfg.APISecret,
		uploadPreset: cfg.UploadPreset,
		folder:       cfg.Folder,
		baseURL:      strings.TrimRight(baseURL, "/"),
		client:       client,
		now:          time.Now,
	}
}

func (c *CloudinaryStore) Name() string {
	return ProviderCloudinary
}

type cloudinaryUploadResponse struct {
	SecureURL    string `json:"secure_url"`
	PublicID     string `json:"public_id"`
	ResourceType string `json:"resource_type"`
}

func (c *CloudinaryStore) Upload(ctx context.Context, objectPath string, file Upload) (StoredObject, error) {
	filename := file.Filename
	if filename == "" {
		filename = path.Base(objectPath)
	}

	var body bytes.Buffer
	form := multipart.NewWriter(&body)
	part, err := form.CreateFormFile("file", filename)
	if err != nil {
		return StoredObject{}, err
	}
	if _, err := part.Write(file.Data); err != nil {
		return StoredObject{}, err
	}
	fields := map[string]string{
		"upload_preset": c.uploadPreset,
		"folder":        c.folder,
	}
	for name, value := range fields {
		if value == "" {
			continue
		}
		if err := form.WriteField(name, value); err != nil {
			return StoredObject{}, err
		}
	}
	if err := form.Close(); err != nil {
		return StoredObject{}, err
	}

	endpoint := fmt.Sprintf("%s/v1_1/%s/auto/upload", c.baseURL, url.PathEscape(c.cloudName))
	var resp cloudinaryUploadResponse
	if err := c.send(ctx, endpoint, form.FormDataContentType(), &body, &resp); err != nil {
		return StoredObject{}, fmt.Errorf("cloudinary upload of %s failed: %w", objectPath, err)
	}
	if resp.SecureURL == "" {
		return StoredObject{}, fmt.Errorf("cloudinary upload of %s returned no secure_url", objectPath)
	}

	return StoredObject{Key: resp.SecureURL, URL: resp.SecureURL}, nil
}

// URL returns key unchanged: Cloudinary delivery URLs are public.
func (c *CloudinaryStore) URL(_ context.Context, key string) (string, error) {
	return key, nil
}

type cloudinaryDestroyResponse struct {
	Result string `json:"result"`
}

// Delete destroys the asset behind key, which is either a delivery URL or a
// bare public id. It reports false when Cloudinary did not find the asset.
func (c *CloudinaryStore) Delete(ctx context.Context, key string) (bool, error) {
	resourceType, publicID := parseCloudinaryKey(key)
	if publicID == "" {
		return false, fmt.Errorf("cannot derive cloudinary public id from %q", key)
	}

	params := map[string]string{
		"public_id": publicID,
		"timestamp": strconv.FormatInt(c.now().Unix(), 10),
	}
	form := url.Values{}
	for name, value := range params {
		form.Set(name, value)
	}
	form.Set("api_key", c.apiKey)
	form.Set("signature", signCloudinaryParams(params, c.apiSecret))

	endpoint := fmt.Sprintf("%s/v1_1/%s/%s/destroy", c.baseURL, url.PathEscape(c.cloudName), resourceType)
	var resp cloudinaryDestroyResponse
	if err := c.send(ctx, endpoint, "application/x-www-form-urlencoded", strings.NewReader(form.Encode()), &resp); err != nil {
		return false, fmt.Errorf("cloudinary delete of %s failed: %w", publicID, err)
	}
	return resp.Result == "ok", nil
}

func (c *CloudinaryStore) send(ctx context.Context, endpoint, contentType string, body io.Reader, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, body)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", contentType)

	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(data)))
	}
	return json.Unmarshal(data, out)
}

// signCloudinaryParams returns hex(sha256("k1=v1&k2=v2" + secret)) with the
// parameters sorted by name.
func signCloudinaryParams(params map[string]string, secret string) string {
	names := make([]string, 0, len(params))
	for name := range params {
		names = append(names, name)
	}
	sort.Strings(names)

	pairs := make([]string, 0, len(names))
	for _, name := range names {
		pairs = append(pairs, name+"="+params[name])
	}

	sum := sha256.Sum256([]byte(strings.Join(pairs, "&") + secret))
	return hex.EncodeToString(sum[:])
}

var cloudinaryVersion = regexp.MustCompile(`^v\d+$`)

// parseCloudinaryKey extracts the resource type and public id from a
// delivery URL such as
// https://res.cloudinary.com/demo/image/upload/v1712/resumes/cv.pdf.
// A key that is not a URL is taken as an image public id.
func parseCloudinaryKey(key string) (resourceType, publicID string) {
	u, err := url.Parse(key)
	if err != nil || u.Host == "" {
		return "image", strings.TrimSuffix(key, path.Ext(key))
	}

	segments := strings.Split(strings.Trim(u.Path, "/"), "/")
	upload := -1
	for i, segment := range segments {
		if segment == "upload" && i > 0 {
			upload = i
			break
		}
	}
	if upload < 0 || upload+1 >= len(segments) {
		return "", ""
	}

	resourceType = segments[upload-1]
	rest := segments[upload+1:]
	if len(rest) > 1 && cloudinaryVersion.MatchString(rest[0]) {
		rest = rest[1:]
	}
	id := strings.Join(rest, "/")
	// Raw assets keep their extension in the public id.
	if resourceType != "raw" {
		id = strings.TrimSuffix(id, path.Ext(id))
	}
	return resourceType, id
}
