package webhook

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"github.com/erp/orderhook/internal/domain/integration"
	"github.com/erp/orderhook/internal/domain/shared"
	"go.uber.org/zap"
)

// SecretSource names which secret authenticated a delivery
type SecretSource string

const (
	SecretSourceNone   SecretSource = ""
	SecretSourceApp    SecretSource = "app"
	SecretSourceCustom SecretSource = "custom"
)

// Verification is the result of checking a delivery signature
type Verification struct {
	Valid  bool
	Source SecretSource
}

// SignatureVerifier authenticates webhook deliveries. A shop's integration
// type is not trusted to pick the secret: the app secrets are tried first,
// then the shop's own custom integration secret.
type SignatureVerifier struct {
	appSecrets [][]byte
	shops      integration.ShopRepository
	logger     *zap.Logger
}

// NewSignatureVerifier creates a SignatureVerifier. Empty app secrets are
// ignored; shops may be nil when only app secrets are in use.
func NewSignatureVerifier(appSecrets []string, shops integration.ShopRepository, logger *zap.Logger) *SignatureVerifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	secrets := make([][]byte, 0, len(appSecrets))
	for _, s := range appSecrets {
		if s = strings.TrimSpace(s); s != "" {
			secrets = append(secrets, []byte(s))
		}
	}
	return &SignatureVerifier{appSecrets: secrets, shops: shops, logger: logger}
}

// Verify checks signature against the raw request body. An invalid signature
// is reported through Verification.Valid; the error is reserved for failures
// looking up the shop.
func (v *SignatureVerifier) Verify(ctx context.Context, shopDomain string, rawBody []byte, signature string) (Verification, error) {
	signature = strings.TrimSpace(signature)
	if signature == "" {
		return Verification{}, nil
	}
	given, err := base64.StdEncoding.DecodeString(signature)
	if err != nil || len(given) != sha256.Size {
		return Verification{}, nil
	}

	for _, secret := range v.appSecrets {
		if hmac.Equal(given, computeMAC(secret, rawBody)) {
			return Verification{Valid: true, Source: SecretSourceApp}, nil
		}
	}

	if v.shops == nil {
		return Verification{}, nil
	}
	domain := shared.NormalizeShopDomain(shopDomain)
	if domain == "" {
		return Verification{}, nil
	}
	shop, err := v.shops.FindByDomain(ctx, domain)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return Verification{}, nil
		}
		return Verification{}, fmt.Errorf("failed to load shop %s: %w", domain, err)
	}
	if !shop.IsActive || shop.WebhookSecret == "" {
		return Verification{}, nil
	}
	if hmac.Equal(given, computeMAC([]byte(shop.WebhookSecret), rawBody)) {
		if shop.IntegrationType != integration.IntegrationTypeCustom {
			v.logger.Debug("Shop webhook signed with custom secret",
				zap.String("shop_domain", domain),
				zap.String("integration_type", string(shop.IntegrationType)),
			)
		}
		return Verification{Valid: true, Source: SecretSourceCustom}, nil
	}
	return Verification{}, nil
}

// Sign returns the base64 HMAC-SHA256 signature of body under secret, in the
// format carried by the signature header.
func Sign(secret string, body []byte) string {
	return base64.StdEncoding.EncodeToString(computeMAC([]byte(secret), body))
}

func computeMAC(secret, body []byte) []byte {
	mac := hmac.New(sha256.New, secret)
	mac.Write(body)
	return mac.Sum(nil)
}
