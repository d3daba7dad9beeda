package wallet

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"golang.org/x/xerrors"
)

const (
	WalletRepo  = "keystore"
	KNamePrefix = "wallet-"
)

var (
	ErrKeyInfoNotFound = fmt.Errorf("key info not found")
	ErrKeyExists       = fmt.Errorf("key already exists")
)

var reAddress = regexp.MustCompile("^0x[0-9a-fA-F]{40}$")

// SetupWallet opens the keystore under the bridge repo dir.
func SetupWallet(dir string) (*LocalWallet, error) {
	repoPath, exit := os.LookupEnv("GSTD_PATH")
	if !exit {
		return nil, fmt.Errorf("missing GSTD_PATH env, please set export GSTD_PATH=xxx")
	}

	kstore, err := OpenOrInitKeystore(filepath.Join(repoPath, dir))
	if err != nil {
		return nil, err
	}

	return NewWallet(kstore)
}

type LocalWallet struct {
	keys     map[string]*KeyInfo
	keystore KeyStore

	lk sync.Mutex
}

func NewWallet(keystore KeyStore) (*LocalWallet, error) {
	w := &LocalWallet{
		keys:     make(map[string]*KeyInfo),
		keystore: keystore,
	}
	return w, nil
}

func (w *LocalWallet) WalletNew(ctx context.Context) (string, error) {
	w.lk.Lock()
	defer w.lk.Unlock()

	privateK, err := crypto.GenerateKey()
	if err != nil {
		return "", err
	}

	privateKeyBytes := crypto.FromECDSA(privateK)
	privateKey := hexutil.Encode(privateKeyBytes)[2:]

	_, publicKeyECDSA, err := ToPublic(privateKey)
	if err != nil {
		return "", err
	}

	address := crypto.PubkeyToAddress(*publicKeyECDSA).Hex()

	keyInfo := KeyInfo{PrivateKey: privateKey}
	if err := w.keystore.Put(KNamePrefix+address, keyInfo); err != nil {
		return "", xerrors.Errorf("saving to keystore: %w", err)
	}
	w.keys[address] = &keyInfo

	return address, nil
}

func (w *LocalWallet) WalletList(ctx context.Context) ([]string, error) {
	all, err := w.keystore.List()
	if err != nil {
		return nil, xerrors.Errorf("listing keystore: %w", err)
	}

	var addressList []string
	for _, name := range all {
		if strings.HasPrefix(name, KNamePrefix) {
			addressList = append(addressList, strings.TrimPrefix(name, KNamePrefix))
		}
	}
	return addressList, nil
}

// WalletDefault returns the first stored address, used when the config
// does not pin a wallet explicitly.
func (w *LocalWallet) WalletDefault(ctx context.Context) (string, error) {
	addressList, err := w.WalletList(ctx)
	if err != nil {
		return "", err
	}
	if len(addressList) == 0 {
		return "", ErrKeyInfoNotFound
	}
	return addressList[0], nil
}

func (w *LocalWallet) WalletExport(ctx context.Context, addr string) (*KeyInfo, error) {
	k, err := w.findKey(addr)
	if err != nil {
		return nil, xerrors.Errorf("failed to find key to export: %w", err)
	}
	if k == nil {
		return nil, xerrors.Errorf("private key not found for %s", addr)
	}

	return k, nil
}

func (w *LocalWallet) WalletImport(ctx context.Context, ki *KeyInfo) (string, error) {
	if ki == nil || len(strings.TrimSpace(ki.PrivateKey)) == 0 {
		return "", fmt.Errorf("not found private key")
	}

	_, publicKeyECDSA, err := ToPublic(ki.PrivateKey)
	if err != nil {
		return "", err
	}

	address := crypto.PubkeyToAddress(*publicKeyECDSA).Hex()

	if existing, _ := w.tryFind(address); existing.PrivateKey != "" {
		return "", xerrors.Errorf("importing key %s: %w", address, ErrKeyExists)
	}

	if err := w.keystore.Put(KNamePrefix+address, *ki); err != nil {
		return "", xerrors.Errorf("saving to keystore: %w", err)
	}
	return address, nil
}

func (w *LocalWallet) WalletDelete(ctx context.Context, addr string) error {
	if !reAddress.MatchString(addr) {
		return fmt.Errorf("failed to parse address: %s", addr)
	}

	w.lk.Lock()
	defer w.lk.Unlock()

	if err := w.keystore.Delete(KNamePrefix + addr); err != nil {
		return xerrors.Errorf("deleting from keystore: %w", err)
	}
	delete(w.keys, addr)
	return nil
}

func (w *LocalWallet) WalletSign(ctx context.Context, addr string, msg []byte) (string, error) {
	ki, err := w.findKey(addr)
	if err != nil {
		return "", err
	}
	if ki == nil {
		return "", xerrors.Errorf("signing using private key '%s': %w", addr, ErrKeyInfoNotFound)
	}
	signByte, err := Sign(ki.PrivateKey, msg)
	if err != nil {
		return "", err
	}
	return hexutil.Encode(signByte.Data), nil
}

func (w *LocalWallet) WalletVerify(ctx context.Context, addr string, sig *Signature, msg []byte) (bool, error) {
	ki, err := w.findKey(addr)
	if err != nil {
		return false, err
	}
	if ki == nil {
		return false, xerrors.Errorf("verifying using private key '%s': %w", addr, ErrKeyInfoNotFound)
	}

	return Verify(sig, ki.PrivateKey, msg)
}

func (w *LocalWallet) findKey(addr string) (*KeyInfo, error) {
	w.lk.Lock()
	defer w.lk.Unlock()

	k, ok := w.keys[addr]
	if ok {
		return k, nil
	}
	if w.keystore == nil {
		return nil, nil
	}

	ki, err := w.tryFind(addr)
	if err != nil {
		if xerrors.Is(err, ErrKeyInfoNotFound) {
			return nil, nil
		}
		return nil, xerrors.Errorf("getting from keystore: %w", err)
	}

	w.keys[addr] = &ki
	return &ki, nil
}

func (w *LocalWallet) tryFind(key string) (KeyInfo, error) {
	return w.keystore.Get(KNamePrefix + key)
}

// ClientIdForAddress derives the stable bridge client identifier for a
// wallet address.
func ClientIdForAddress(addr string) string {
	sum := sha256.Sum256([]byte(strings.ToLower(addr)))
	return "gstd_" + hex.EncodeToString(sum[:])[:12]
}
