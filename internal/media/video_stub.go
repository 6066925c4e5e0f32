//go:build novideo

package media

func openVideo(path string) (Handle, error) {
	return nil, ErrNoVideo
}
