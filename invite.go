package main

import (
	"net/http"
	"net/url"
	"strings"

	qrcode "github.com/skip2/go-qrcode"
)

const inviteQRSize = 256 // px

// InviteURL is the link a QR invite points to
func InviteURL(publicURL, roomID string) string {
	return strings.TrimRight(publicURL, "/") + "/?room=" + url.QueryEscape(roomID)
}

// InviteQR renders the invite link for roomID as a PNG
func InviteQR(publicURL, roomID string) ([]byte, error) {
	return qrcode.Encode(InviteURL(publicURL, roomID), qrcode.Medium, inviteQRSize)
}

// inviteHandler serves GET /invite/{room}.png for rooms that exist
func inviteHandler(hub *Hub, publicURL string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		name := r.PathValue("file")
		roomID, ok := strings.CutSuffix(name, ".png")
		if !ok || roomID == "" || hub.rooms.GetRoom(roomID) == nil {
			http.NotFound(w, r)
			return
		}
		png, err := InviteQR(publicURL, roomID)
		if err != nil {
			hub.log.Errorw("invite render failed", "room", roomID, "err", err)
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "image/png")
		w.Header().Set("Cache-Control", "no-cache")
		w.Write(png)
	}
}
