// Package types holds the request and response bodies of the REST surface.
package types

import "github.com/dfquiroga/whatsapp-service/internal/send"

type RequestSend struct {
	Phone   string `json:"phone"`
	Message string `json:"message"`
}

type RequestSendMedia struct {
	Phone       string `json:"phone"`
	Message     string `json:"message"`
	ImageBase64 string `json:"imageBase64"`
}

type RequestSendBulk struct {
	Messages []RequestSend `json:"messages"`
}

type ResponseIndex struct {
	Service string `json:"service"`
	Version string `json:"version"`
	Status  string `json:"status"`
	HasQR   bool   `json:"hasQR"`
}

type ResponseStatus struct {
	Ready bool `json:"ready"`
	// QR carries the raw pairing token, null unless a scan is pending.
	QR *string `json:"qr"`
	// QRImage is a PNG data URI rendering of the token, for clients that want
	// to show it directly.
	QRImage string `json:"qrImage,omitempty"`
	Message string `json:"message"`
}

type ResponseSend struct {
	Success   bool   `json:"success"`
	Message   string `json:"message"`
	MessageID string `json:"messageId"`
	To        string `json:"to"`
}

type ImageCompression struct {
	OriginalSize   int `json:"originalSize"`
	CompressedSize int `json:"compressedSize"`
}

type ResponseSendMedia struct {
	Success          bool             `json:"success"`
	Message          string           `json:"message"`
	MessageID        string           `json:"messageId"`
	To               string           `json:"to"`
	ImageCompression ImageCompression `json:"imageCompression"`
}

type ResponseSendBulk struct {
	Success bool              `json:"success"`
	Total   int               `json:"total"`
	Sent    int               `json:"sent"`
	Failed  int               `json:"failed"`
	Results []send.BulkResult `json:"results"`
}

type ResponseLifecycle struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}
