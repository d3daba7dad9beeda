package wallet

import (
	"context"
	"strings"
	"testing"
)

func newTestWallet(t *testing.T) *LocalWallet {
	t.Helper()
	t.Setenv("GSTD_PATH", t.TempDir())

	w, err := SetupWallet(WalletRepo)
	if err != nil {
		t.Fatal(err)
	}
	return w
}

func TestWalletNewAndList(t *testing.T) {
	w := newTestWallet(t)
	ctx := context.Background()

	addr, err := w.WalletNew(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if !reAddress.MatchString(addr) {
		t.Fatalf("generated address malformed: %s", addr)
	}

	addrs, err := w.WalletList(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(addrs) != 1 || addrs[0] != addr {
		t.Fatalf("expected [%s], got %v", addr, addrs)
	}

	def, err := w.WalletDefault(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if def != addr {
		t.Errorf("default address mismatch: %s", def)
	}
}

func TestWalletExportImportRoundTrip(t *testing.T) {
	w := newTestWallet(t)
	ctx := context.Background()

	addr, err := w.WalletNew(ctx)
	if err != nil {
		t.Fatal(err)
	}

	ki, err := w.WalletExport(ctx, addr)
	if err != nil {
		t.Fatal(err)
	}
	if ki.PrivateKey == "" {
		t.Fatal("exported key empty")
	}

	// Re-importing the same key must be rejected.
	if _, err := w.WalletImport(ctx, ki); err == nil {
		t.Fatal("duplicate import must fail")
	}

	if err := w.WalletDelete(ctx, addr); err != nil {
		t.Fatal(err)
	}

	imported, err := w.WalletImport(ctx, ki)
	if err != nil {
		t.Fatal(err)
	}
	if imported != addr {
		t.Errorf("imported key resolves to %s, want %s", imported, addr)
	}
}

func TestWalletSignVerify(t *testing.T) {
	w := newTestWallet(t)
	ctx := context.Background()

	addr, err := w.WalletNew(ctx)
	if err != nil {
		t.Fatal(err)
	}

	msg := []byte("escrow release for task_123")
	sigHex, err := w.WalletSign(ctx, addr, msg)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(sigHex, "0x") {
		t.Fatalf("signature not hex encoded: %s", sigHex)
	}

	ki, err := w.WalletExport(ctx, addr)
	if err != nil {
		t.Fatal(err)
	}
	sig, err := Sign(ki.PrivateKey, msg)
	if err != nil {
		t.Fatal(err)
	}

	ok, err := w.WalletVerify(ctx, addr, sig, msg)
	if err != nil {
		t.Fatal(err)
	}
	if !ok {
		t.Error("signature must verify against the signing key")
	}

	ok, err = w.WalletVerify(ctx, addr, sig, []byte("tampered"))
	if err != nil {
		t.Fatal(err)
	}
	if ok {
		t.Error("tampered message must not verify")
	}
}

func TestClientIdForAddress(t *testing.T) {
	a := ClientIdForAddress("0xAbCd000000000000000000000000000000000001")
	b := ClientIdForAddress("0xabcd000000000000000000000000000000000001")
	if a != b {
		t.Error("client id must be case insensitive over the address")
	}
	if !strings.HasPrefix(a, "gstd_") || len(a) != len("gstd_")+12 {
		t.Errorf("unexpected client id shape: %s", a)
	}

	other := ClientIdForAddress("0xAbCd000000000000000000000000000000000002")
	if a == other {
		t.Error("distinct addresses must map to distinct client ids")
	}
}
