//go:build !windows

package credentials

// ReadFromStore is not supported on this platform; credentials are kept in
// the configuration file instead.
func (this *Credentials) ReadFromStore() (supported bool, err error) {
	return false, nil
}

func (this *Credentials) WriteToStore() (supported bool, err error) {
	return false, nil
}
