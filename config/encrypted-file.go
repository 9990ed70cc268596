package config

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"io"
	"io/ioutil"
	"os"
	"path"
	"strings"
	"sync"
)

var fileEncrKey = []byte("mK2#fWqz9$tBnR6!uJd4@xHs8%vCpE3y")

// EncryptedFile stores its contents AES-GCM encrypted and base64 encoded so
// connection credentials are not readable at rest.
type EncryptedFile struct {
	Dirname     string
	FileName    string
	FilePrefix  string
	FileExt     string
	FullPath    string
	mu          sync.Mutex
	fileCreated bool
}

func NewEncryptedFileInConfigHomeDir(filename string) *EncryptedFile {
	dirName := mustGetConfigHomeDir()
	f := &EncryptedFile{Dirname: dirName, FileName: filename}
	f.FullPath = path.Join(dirName, filename)
	f.FileExt = strings.TrimLeft(path.Ext(filename), ".")
	f.FilePrefix = strings.TrimRight(f.FileName, "."+f.FileExt)
	return f
}

// Set encrypts text and writes it to the file, creating the config directory
// on first use.
func (f *EncryptedFile) Set(text []byte) error {
	gcm, err := newGcm(fileEncrKey)
	if err != nil {
		return err
	}
	// The nonce must be unique per encryption; prepend it to the sealed bytes
	// so Get can recover it.
	nonce := make([]byte, gcm.NonceSize())
	if _, err = io.ReadFull(rand.Reader, nonce); err != nil {
		return err
	}
	sealedBytes := gcm.Seal(nonce, nonce, text, nil)
	b64 := base64.StdEncoding.EncodeToString(sealedBytes)
	if !fileExists(f.FullPath) {
		if err := makeDir(f.Dirname); err != nil {
			return err
		}
	}
	return ioutil.WriteFile(f.FullPath, []byte(b64), 0600)
}

// Get reads and decrypts the file contents.
func (f *EncryptedFile) Get() ([]byte, error) {
	if !fileExists(f.FullPath) {
		return nil, FileNotFoundError{f.FullPath}
	}
	b64, err := ioutil.ReadFile(f.FullPath)
	if err != nil {
		return nil, err
	}
	cipherText, err := base64.StdEncoding.DecodeString(string(b64))
	if err != nil {
		return nil, err
	}
	return Decrypt(cipherText, fileEncrKey)
}

// Decrypt opens AES-GCM sealed bytes whose nonce is the leading NonceSize
// bytes.
func Decrypt(text []byte, key []byte) ([]byte, error) {
	gcm, err := newGcm(key)
	if err != nil {
		return nil, err
	}
	nonceSize := gcm.NonceSize()
	if len(text) < nonceSize {
		return nil, fmt.Errorf("encrypted text is too short")
	}
	nonce, cipherText := text[:nonceSize], text[nonceSize:]
	return gcm.Open(nil, nonce, cipherText, nil)
}

func newGcm(key []byte) (cipher.AEAD, error) {
	c, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(c)
}

func fileExists(filename string) bool {
	info, err := os.Stat(filename)
	if os.IsNotExist(err) {
		return false
	}
	return !info.IsDir()
}
