package whatsapp

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sync"

	"github.com/sunshineplan/imgconv"
	"google.golang.org/protobuf/proto"

	"go.mau.fi/whatsmeow"
	"go.mau.fi/whatsmeow/proto/waCompanionReg"
	"go.mau.fi/whatsmeow/proto/waE2E"
	"go.mau.fi/whatsmeow/store"
	"go.mau.fi/whatsmeow/store/sqlstore"
	"go.mau.fi/whatsmeow/types"
	"go.mau.fi/whatsmeow/types/events"

	_ "modernc.org/sqlite"

	"github.com/dfquiroga/whatsapp-service/pkg/phone"
)

const thumbnailWidth = 72

// MeowClient implements Client on top of whatsmeow with an on-disk sqlite
// credential store rooted at the session directory. Deleting that directory
// wholesale (after Destroy) drops the session.
type MeowClient struct {
	sessionPath string
	container   *sqlstore.Container
	client      *whatsmeow.Client

	handlerMu sync.RWMutex
	handler   func(Event)

	qrCancel context.CancelFunc
}

// NewMeowClient opens (or creates) the credential store under sessionPath and
// builds an unconnected protocol client bound to it.
func NewMeowClient(sessionPath string) (*MeowClient, error) {
	if err := os.MkdirAll(sessionPath, 0o755); err != nil {
		return nil, fmt.Errorf("create session directory: %w", err)
	}

	dsn := "file:" + filepath.Join(sessionPath, "session.db") + "?_pragma=foreign_keys(1)"
	container, err := sqlstore.New(context.Background(), "sqlite", dsn, nil)
	if err != nil {
		return nil, fmt.Errorf("open session datastore: %w", err)
	}

	device, err := container.GetFirstDevice(context.Background())
	if err != nil {
		_ = container.Close()
		return nil, fmt.Errorf("load session device: %w", err)
	}

	store.DeviceProps.Os = proto.String(runtime.GOOS)
	store.DeviceProps.PlatformType = waCompanionReg.DeviceProps_CHROME.Enum()
	store.DeviceProps.RequireFullSync = proto.Bool(false)

	client := whatsmeow.NewClient(device, nil)
	// Reconnect policy lives in the session manager, not the protocol client.
	client.EnableAutoReconnect = false
	client.AutoTrustIdentity = true

	m := &MeowClient{
		sessionPath: sessionPath,
		container:   container,
		client:      client,
	}
	client.AddEventHandler(m.translate)

	return m, nil
}

func (m *MeowClient) SetEventHandler(handler func(Event)) {
	m.handlerMu.Lock()
	defer m.handlerMu.Unlock()
	m.handler = handler
}

func (m *MeowClient) emit(evt Event) {
	m.handlerMu.RLock()
	handler := m.handler
	m.handlerMu.RUnlock()
	if handler != nil {
		handler(evt)
	}
}

// Start connects the client. When the store holds no credentials yet, the QR
// channel is drained in the background and each code surfaces as an EventQR.
func (m *MeowClient) Start(ctx context.Context) error {
	if m.client.Store.ID == nil {
		qrCtx, cancel := context.WithCancel(context.Background())
		m.qrCancel = cancel

		qrChan, err := m.client.GetQRChannel(qrCtx)
		if err != nil {
			cancel()
			return fmt.Errorf("obtain qr channel: %w", err)
		}
		if err := m.client.Connect(); err != nil {
			cancel()
			return fmt.Errorf("connect: %w", err)
		}
		go m.consumeQR(qrChan)
		return nil
	}

	if err := m.client.Connect(); err != nil {
		return fmt.Errorf("connect: %w", err)
	}
	return nil
}

func (m *MeowClient) consumeQR(qrChan <-chan whatsmeow.QRChannelItem) {
	for item := range qrChan {
		switch item.Event {
		case "code":
			m.emit(Event{Kind: EventQR, QRCode: item.Code})
		case whatsmeow.QRChannelSuccess.Event:
			m.emit(Event{Kind: EventAuthenticated})
		case whatsmeow.QRChannelTimeout.Event:
			m.emit(Event{Kind: EventAuthFailure, Reason: "qr pairing timed out"})
		case "error":
			reason := "qr channel error"
			if item.Error != nil {
				reason = item.Error.Error()
			}
			m.emit(Event{Kind: EventAuthFailure, Reason: reason})
		}
	}
}

func (m *MeowClient) translate(raw interface{}) {
	switch e := raw.(type) {
	case *events.Connected:
		m.emit(Event{Kind: EventReady})
	case *events.PairSuccess:
		m.emit(Event{Kind: EventAuthenticated})
	case *events.LoggedOut:
		m.emit(Event{Kind: EventAuthFailure, Reason: fmt.Sprintf("logged out (%v)", e.Reason)})
	case *events.StreamReplaced:
		m.emit(Event{Kind: EventDisconnected, Reason: "stream replaced by another session"})
	case *events.Disconnected:
		m.emit(Event{Kind: EventDisconnected, Reason: "connection closed"})
	case *events.ConnectFailure:
		m.emit(Event{Kind: EventDisconnected, Reason: fmt.Sprintf("connect failure (%v)", e.Reason)})
	case *events.Receipt:
		code := AckDevice
		if e.Type == types.ReceiptTypeRead || e.Type == types.ReceiptTypeReadSelf {
			code = AckRead
		} else if e.Type == types.ReceiptTypePlayed {
			code = AckPlayed
		}
		for _, msgID := range e.MessageIDs {
			m.emit(Event{Kind: EventAck, MessageID: msgID, AckCode: code})
		}
	}
}

// Destroy disconnects and closes the credential store so the session
// directory can be wiped from disk afterwards.
func (m *MeowClient) Destroy() error {
	if m.qrCancel != nil {
		m.qrCancel()
	}
	m.client.Disconnect()
	if err := m.container.Close(); err != nil {
		return fmt.Errorf("close session datastore: %w", err)
	}
	return nil
}

func (m *MeowClient) IsRegisteredUser(ctx context.Context, address string) (bool, error) {
	local := phone.LocalPart(address)
	if local == "" {
		return false, errors.New("empty recipient address")
	}
	infos, err := m.client.IsOnWhatsApp(ctx, []string{"+" + local})
	if err != nil {
		return false, fmt.Errorf("registration check: %w", err)
	}
	if len(infos) == 0 {
		return false, nil
	}
	return infos[0].IsIn, nil
}

func (m *MeowClient) userJID(address string) types.JID {
	return types.NewJID(phone.LocalPart(address), types.DefaultUserServer)
}

func (m *MeowClient) SendText(ctx context.Context, address string, message string) (string, error) {
	if !m.client.IsConnected() {
		return "", errors.New("client is not connected")
	}

	msgExtra := whatsmeow.SendRequestExtra{ID: m.client.GenerateMessageID()}
	msgContent := &waE2E.Message{
		Conversation: proto.String(message),
	}

	if _, err := m.client.SendMessage(ctx, m.userJID(address), msgContent, msgExtra); err != nil {
		return "", err
	}

	m.emit(Event{Kind: EventAck, MessageID: msgExtra.ID, AckCode: AckServer})
	return msgExtra.ID, nil
}

func (m *MeowClient) SendImage(ctx context.Context, address string, caption string, imagePath string) (string, error) {
	if !m.client.IsConnected() {
		return "", errors.New("client is not connected")
	}

	imageBytes, err := os.ReadFile(imagePath)
	if err != nil {
		return "", fmt.Errorf("read prepared image: %w", err)
	}

	imgThumbDecode, err := imgconv.Decode(bytes.NewReader(imageBytes))
	if err != nil {
		return "", errors.New("error while decoding thumbnail image stream")
	}
	imgThumbEncode := new(bytes.Buffer)
	err = imgconv.Write(imgThumbEncode,
		imgconv.Resize(imgThumbDecode, &imgconv.ResizeOption{Width: thumbnailWidth}),
		&imgconv.FormatOption{Format: imgconv.JPEG})
	if err != nil {
		return "", errors.New("error while encoding thumbnail image stream")
	}

	imageUploaded, err := m.client.Upload(ctx, imageBytes, whatsmeow.MediaImage)
	if err != nil {
		return "", errors.New("error while uploading media to WhatsApp server")
	}
	imageThumbUploaded, err := m.client.Upload(ctx, imgThumbEncode.Bytes(), whatsmeow.MediaLinkThumbnail)
	if err != nil {
		return "", errors.New("error while uploading image thumbnail to WhatsApp server")
	}

	msgExtra := whatsmeow.SendRequestExtra{ID: m.client.GenerateMessageID()}
	msgContent := &waE2E.Message{
		ImageMessage: &waE2E.ImageMessage{
			URL:                 proto.String(imageUploaded.URL),
			DirectPath:          proto.String(imageUploaded.DirectPath),
			Mimetype:            proto.String("image/jpeg"),
			Caption:             proto.String(caption),
			FileLength:          proto.Uint64(imageUploaded.FileLength),
			FileSHA256:          imageUploaded.FileSHA256,
			FileEncSHA256:       imageUploaded.FileEncSHA256,
			MediaKey:            imageUploaded.MediaKey,
			JPEGThumbnail:       imgThumbEncode.Bytes(),
			ThumbnailDirectPath: &imageThumbUploaded.DirectPath,
			ThumbnailSHA256:     imageThumbUploaded.FileSHA256,
			ThumbnailEncSHA256:  imageThumbUploaded.FileEncSHA256,
		},
	}

	if _, err := m.client.SendMessage(ctx, m.userJID(address), msgContent, msgExtra); err != nil {
		return "", err
	}

	m.emit(Event{Kind: EventAck, MessageID: msgExtra.ID, AckCode: AckServer})
	return msgExtra.ID, nil
}
