package main

import (
	"net/url"

	"github.com/skip2/go-qrcode"
)

const qrSize = 256 // pixels

// ControllerURL is the link a phone opens to become the pilot's touch
// controller. The client page reads the control parameter and sends a
// control message with it.
func ControllerURL(base, sid, pilotID string) string {
	q := url.Values{}
	q.Set("control", pilotID)
	return base + "/" + sid + "?" + q.Encode()
}

// ControllerQR renders the controller link as a PNG
func ControllerQR(base, sid, pilotID string) ([]byte, error) {
	return qrcode.Encode(ControllerURL(base, sid, pilotID), qrcode.Medium, qrSize)
}
