//go:build windows

package credentials

import (
	"errors"
	"fmt"

	"github.com/danieljoos/wincred"
	log "github.com/echocat/slf4g"
	"golang.org/x/sys/windows"
)

func (this *Credentials) ReadFromStore() (supported bool, err error) {
	c, err := wincred.GetGenericCredential(appName)
	if errors.Is(err, windows.ERROR_NOT_FOUND) {
		return true, nil
	}
	if err != nil {
		return false, fmt.Errorf("cannot retrieve credentials from Windows Credentials store: %w", err)
	}
	var buf Credentials
	if err := buf.UnmarshalBinary(c.CredentialBlob); err != nil {
		log.WithError(err).
			Error("Cannot unmarshal credentials from Windows Credentials store. Assume it was empty.")
	}

	*this = buf
	return true, nil
}

func (this *Credentials) WriteToStore() (supported bool, err error) {
	var current Credentials
	if _, err := current.ReadFromStore(); err != nil {
		return false, err
	}
	current.Merge(*this)

	b, err := current.MarshalBinary()
	if err != nil {
		return false, fmt.Errorf("cannot marshal credentials to JSON: %w", err)
	}

	cred := wincred.NewGenericCredential(appName)
	cred.CredentialBlob = b
	if err := cred.Write(); err != nil {
		return false, fmt.Errorf("cannot store credentials to Windows Credentials store: %w", err)
	}

	return true, nil
}
