package realtime

import (
	"encoding/json"
	"log"
	"time"

	"backend-layanan/internal/models"
)

// WebsocketRelay implementasi event relay di atas Hub.
// Fire-and-forget: gagal kirim cuma di-log, tidak pernah naik ke
// business logic.
type WebsocketRelay struct {
	hub *Hub
}

func NewWebsocketRelay(hub *Hub) *WebsocketRelay {
	return &WebsocketRelay{hub: hub}
}

func (r *WebsocketRelay) NotifyUser(userID int64, event string, payload interface{}) {
	r.send(UserKey(userID), event, payload)
}

func (r *WebsocketRelay) NotifyVendor(vendorID int64, event string, payload interface{}) {
	r.send(VendorKey(vendorID), event, payload)
}

// PushVendorQueue push snapshot utuh antrian vendor, dipanggil tiap
// keanggotaan antrian berubah.
func (r *WebsocketRelay) PushVendorQueue(vendorID int64, tokens []models.Token) {
	r.send(VendorKey(vendorID), "queue_snapshot", map[string]interface{}{
		"vendor_id": vendorID,
		"queue":     tokens,
	})
}

func (r *WebsocketRelay) send(key, event string, payload interface{}) {
	message, err := json.Marshal(map[string]interface{}{
		"type":      event,
		"data":      payload,
		"timestamp": time.Now().Format(time.RFC3339),
	})
	if err != nil {
		log.Printf("[relay] gagal marshal event %s: %v", event, err)
		return
	}

	r.hub.Send(key, message)
}
