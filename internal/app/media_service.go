package app

import (
	"crypto/hmac"
	"crypto/sha1"
	"encoding/hex"
	"strconv"
	"time"

	"github.com/google/uuid"
)

const defaultUploadTokenTTL = 10 * time.Minute

// UploadCredentials authorize a single browser-side upload to the image CDN.
// Signature is hex(HMAC-SHA1(token + expire, privateKey)), the CDN's
// upload-auth contract.
type UploadCredentials struct {
	Token     string `json:"token"`
	Expire    int64  `json:"expire"`
	Signature string `json:"signature"`
}

// MediaService signs upload requests for the image CDN. Uploads themselves go
// browser to CDN; the service only vouches for them.
type MediaService struct {
	publicKey   string
	privateKey  string
	urlEndpoint string
	tokenTTL    time.Duration

	now func() time.Time
}

// NewMediaService creates a MediaService for the given CDN key pair. A zero
// tokenTTL defaults to ten minutes.
func NewMediaService(publicKey, privateKey, urlEndpoint string, tokenTTL time.Duration) *MediaService {
	if tokenTTL == 0 {
		tokenTTL = defaultUploadTokenTTL
	}
	return &MediaService{
		publicKey:   publicKey,
		privateKey:  privateKey,
		urlEndpoint: urlEndpoint,
		tokenTTL:    tokenTTL,
		now:         time.Now,
	}
}

// UploadAuth issues fresh single-use upload credentials.
func (s *MediaService) UploadAuth() UploadCredentials {
	token := uuid.NewString()
	expire := s.now().Add(s.tokenTTL).Unix()

	mac := hmac.New(sha1.New, []byte(s.privateKey))
	mac.Write([]byte(token + strconv.FormatInt(expire, 10)))

	return UploadCredentials{
		Token:     token,
		Expire:    expire,
		Signature: hex.EncodeToString(mac.Sum(nil)),
	}
}

// PublicKey returns the CDN public key for client configuration.
func (s *MediaService) PublicKey() string { return s.publicKey }

// URLEndpoint returns the CDN delivery endpoint for client configuration.
func (s *MediaService) URLEndpoint() string { return s.urlEndpoint }
