// Package media uploads images to Cloudinary over its REST API and deletes
// them best-effort. A failure here is reported upward but must never corrupt
// the operation that requested the upload.
package media

import (
	"bytes"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path"
	"sort"
	"strconv"
	"strings"
	"time"

	"techshop/domain"
	"techshop/pkg/logger"

	"github.com/google/uuid"
)

type CloudinaryConfig struct {
	CloudName    string
	ApiKey       string
	ApiSecret    string
	UploadFolder string
}

type CloudinaryRepository struct {
	cloudinaryConfig CloudinaryConfig
	client           *http.Client
}

func NewCloudinaryRepository(cfg CloudinaryConfig) *CloudinaryRepository {
	return &CloudinaryRepository{
		cloudinaryConfig: cfg,
		client:           &http.Client{Timeout: 15 * time.Second},
	}
}

type uploadResponse struct {
	SecureURL string `json:"secure_url"`
	PublicID  string `json:"public_id"`
	Error     struct {
		Message string `json:"message"`
	} `json:"error"`
}

// Upload pushes the byte stream to Cloudinary and returns the public URL.
func (r *CloudinaryRepository) Upload(data io.Reader, filename string) (string, error) {
	if r.cloudinaryConfig.CloudName == "" || r.cloudinaryConfig.ApiKey == "" || r.cloudinaryConfig.ApiSecret == "" {
		return "", domain.NewError(domain.KindUnconfigured, "cloudinary cloud name, api key and api secret are required")
	}

	timestamp := strconv.FormatInt(time.Now().Unix(), 10)
	publicID := uuid.NewString()

	params := map[string]string{
		"folder":    r.cloudinaryConfig.UploadFolder,
		"public_id": publicID,
		"timestamp": timestamp,
	}

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(part, data); err != nil {
		return "", err
	}

	for key, value := range params {
		_ = writer.WriteField(key, value)
	}
	_ = writer.WriteField("api_key", r.cloudinaryConfig.ApiKey)
	_ = writer.WriteField("signature", r.sign(params))

	if err := writer.Close(); err != nil {
		return "", err
	}

	url := fmt.Sprintf("https://api.cloudinary.com/v1_1/%s/image/upload", r.cloudinaryConfig.CloudName)
	req, err := http.NewRequest(http.MethodPost, url, body)
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	res, err := r.client.Do(req)
	if err != nil {
		return "", err
	}
	defer res.Body.Close()

	var uploaded uploadResponse
	if err := json.NewDecoder(res.Body).Decode(&uploaded); err != nil {
		return "", fmt.Errorf("failed to decode cloudinary response: %w", err)
	}

	if res.StatusCode < 200 || res.StatusCode > 299 {
		return "", fmt.Errorf("cloudinary upload failed with status %d: %s", res.StatusCode, uploaded.Error.Message)
	}

	return uploaded.SecureURL, nil
}

// Delete removes the asset behind the public URL. Best-effort: errors are
// logged and returned, callers may ignore them.
func (r *CloudinaryRepository) Delete(publicURL string) error {
	publicID := publicIDFromURL(publicURL)
	if publicID == "" {
		return domain.NewError(domain.KindInvalidInput, "not a cloudinary url")
	}

	timestamp := strconv.FormatInt(time.Now().Unix(), 10)
	params := map[string]string{
		"public_id": publicID,
		"timestamp": timestamp,
	}

	form := fmt.Sprintf("public_id=%s&timestamp=%s&api_key=%s&signature=%s",
		publicID, timestamp, r.cloudinaryConfig.ApiKey, r.sign(params))

	url := fmt.Sprintf("https://api.cloudinary.com/v1_1/%s/image/destroy", r.cloudinaryConfig.CloudName)
	req, err := http.NewRequest(http.MethodPost, url, strings.NewReader(form))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	res, err := r.client.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode > 299 {
		logger.Warn("cloudinary destroy returned negative response", "status", res.StatusCode)
		return fmt.Errorf("cloudinary destroy failed with status %d", res.StatusCode)
	}

	return nil
}

// sign implements Cloudinary's request signing: SHA-1 over the sorted
// key=value pairs joined with & plus the api secret.
func (r *CloudinaryRepository) sign(params map[string]string) string {
	keys := make([]string, 0, len(params))
	for key := range params {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	pairs := make([]string, 0, len(keys))
	for _, key := range keys {
		pairs = append(pairs, key+"="+params[key])
	}

	sum := sha1.Sum([]byte(strings.Join(pairs, "&") + r.cloudinaryConfig.ApiSecret))
	return hex.EncodeToString(sum[:])
}

// publicIDFromURL extracts "<folder>/<id>" from
// https://res.cloudinary.com/<cloud>/image/upload/v123/<folder>/<id>.<ext>
func publicIDFromURL(publicURL string) string {
	idx := strings.Index(publicURL, "/upload/")
	if idx < 0 {
		return ""
	}

	rest := publicURL[idx+len("/upload/"):]
	parts := strings.SplitN(rest, "/", 2)
	if len(parts) == 2 && strings.HasPrefix(parts[0], "v") {
		rest = parts[1]
	}

	return strings.TrimSuffix(rest, path.Ext(rest))
}
