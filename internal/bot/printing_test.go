package bot

import (
	"testing"

	qrcode "github.com/skip2/go-qrcode"
)

func TestQRPayloadRoundTrip(t *testing.T) {
	payload := qrPayload(42)
	if payload != "scan/42" {
		t.Fatalf("qrPayload(42) = %q", payload)
	}
	// то, что зашито в код, должен понять сканер
	if got := containerIDFromPayload(payload); got != "42" {
		t.Errorf("containerIDFromPayload(%q) = %q, want 42", payload, got)
	}
}

func TestQRSizes(t *testing.T) {
	want := map[string]int{"small": 64, "medium": 100, "large": 150}
	for k, px := range want {
		if qrSizes[k] != px {
			t.Errorf("qrSizes[%q] = %d, want %d", k, qrSizes[k], px)
		}
		if _, ok := qrSizeLabels[k]; !ok {
			t.Errorf("нет подписи размера %q", k)
		}
	}
}

func TestQRPayloadEncodes(t *testing.T) {
	for _, px := range qrSizes {
		png, err := qrcode.Encode(qrPayload(7), qrcode.Medium, px)
		if err != nil {
			t.Fatalf("encode %dpx: %v", px, err)
		}
		if len(png) == 0 {
			t.Errorf("пустой PNG для %dpx", px)
		}
	}
}
