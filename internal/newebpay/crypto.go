package newebpay

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/url"
	"strings"
	"time"

	"lightkart/internal/config"
)

// RespondType is the only response encoding the integration speaks.
const RespondType = "JSON"

// Client implements the gateway's integrity contract: an AES-256-CBC
// encrypted data chain plus an uppercase SHA-256 checksum keyed with the
// shared secret material. It carries no business state.
type Client struct {
	cfg config.NewebpayConfig
	now func() time.Time
}

// New creates a gateway client. The hash key and IV lengths are the
// cipher's hard requirements; a wrong length here would corrupt every
// transaction, so it is rejected up front.
func New(cfg config.NewebpayConfig) (*Client, error) {
	if len(cfg.HashKey) != 32 {
		return nil, fmt.Errorf("newebpay hash key must be 32 bytes, got %d", len(cfg.HashKey))
	}
	if len(cfg.HashIV) != aes.BlockSize {
		return nil, fmt.Errorf("newebpay hash IV must be %d bytes, got %d", aes.BlockSize, len(cfg.HashIV))
	}
	return &Client{cfg: cfg, now: time.Now}, nil
}

// TradeInfo is the outbound field set serialised into the encrypted data
// chain.
type TradeInfo struct {
	TimeStamp       int64
	MerchantOrderNo string
	Amt             int64
	ItemDesc        string
}

// dataChain serialises the trade fields in the gateway-mandated order.
// ItemDesc and NotifyURL carry arbitrary text and are query-escaped.
func (c *Client) dataChain(t TradeInfo) string {
	return fmt.Sprintf(
		"MerchantID=%s&RespondType=%s&TimeStamp=%d&Version=%s&MerchantOrderNo=%s&Amt=%d&ItemDesc=%s&NotifyURL=%s",
		c.cfg.MerchantID,
		RespondType,
		t.TimeStamp,
		c.cfg.Version,
		t.MerchantOrderNo,
		t.Amt,
		url.QueryEscape(t.ItemDesc),
		url.QueryEscape(c.cfg.NotifyURL),
	)
}

// EncryptTradeInfo encrypts the data chain with AES-256-CBC (PKCS#7
// padding) and returns it hex-encoded.
func (c *Client) EncryptTradeInfo(t TradeInfo) (string, error) {
	return c.encrypt([]byte(c.dataChain(t)))
}

func (c *Client) encrypt(plaintext []byte) (string, error) {
	block, err := aes.NewCipher([]byte(c.cfg.HashKey))
	if err != nil {
		return "", fmt.Errorf("failed to initialise cipher: %w", err)
	}

	padded := pkcs7Pad(plaintext, aes.BlockSize)
	encrypted := make([]byte, len(padded))
	cipher.NewCBCEncrypter(block, []byte(c.cfg.HashIV)).CryptBlocks(encrypted, padded)

	return hex.EncodeToString(encrypted), nil
}

func (c *Client) decrypt(tradeInfoHex string) ([]byte, error) {
	encrypted, err := hex.DecodeString(tradeInfoHex)
	if err != nil {
		return nil, fmt.Errorf("trade info is not valid hex: %w", err)
	}
	if len(encrypted) == 0 || len(encrypted)%aes.BlockSize != 0 {
		return nil, fmt.Errorf("trade info length %d is not a multiple of the cipher block size", len(encrypted))
	}

	block, err := aes.NewCipher([]byte(c.cfg.HashKey))
	if err != nil {
		return nil, fmt.Errorf("failed to initialise cipher: %w", err)
	}

	plaintext := make([]byte, len(encrypted))
	cipher.NewCBCDecrypter(block, []byte(c.cfg.HashIV)).CryptBlocks(plaintext, encrypted)

	// The gateway pads with PKCS#7 but some responses carry stray
	// control bytes; strip everything at or below 0x20, which also
	// removes the padding.
	return stripControl(plaintext), nil
}

// TradeSha computes the uppercase SHA-256 checksum over the encrypted
// payload bracketed by the shared secret material. The gateway compares
// this value byte for byte; casing matters.
func (c *Client) TradeSha(tradeInfoHex string) string {
	plainText := fmt.Sprintf("HashKey=%s&%s&HashIV=%s", c.cfg.HashKey, tradeInfoHex, c.cfg.HashIV)
	sum := sha256.Sum256([]byte(plainText))
	return strings.ToUpper(hex.EncodeToString(sum[:]))
}

func pkcs7Pad(data []byte, blockSize int) []byte {
	padding := blockSize - len(data)%blockSize
	return append(data, bytes.Repeat([]byte{byte(padding)}, padding)...)
}

func stripControl(data []byte) []byte {
	out := make([]byte, 0, len(data))
	for _, b := range data {
		if b > 0x20 {
			out = append(out, b)
		}
	}
	return out
}
