package storage

import "testing"

func TestObjectNameFromURL(t *testing.T) {
	store := &AvatarStorage{bucket: "avatars-bucket", publicURL: "https://files.example.com"}

	cases := []struct {
		name string
		raw  string
		want string
	}{
		{"public url", "https://files.example.com/avatars-bucket/avatars/users/1/a.png", "avatars/users/1/a.png"},
		{"bare object path", "avatars/users/1/a.png", "avatars/users/1/a.png"},
		{"leading slash", "/avatars-bucket/avatars/users/1/a.png", "avatars/users/1/a.png"},
		{"same host different prefix", "https://files.example.com/other/a.png", "other/a.png"},
		{"foreign host", "https://cdn.other.com/avatars/a.png", ""},
		{"empty", "   ", ""},
	}

	for _, tc := range cases {
		if got := store.objectNameFromURL(tc.raw); got != tc.want {
			t.Errorf("%s: objectNameFromURL(%q) = %q, want %q", tc.name, tc.raw, got, tc.want)
		}
	}
}

func TestAvatarExtension(t *testing.T) {
	cases := []struct {
		filename    string
		contentType string
		want        string
	}{
		{"photo.png", "image/png", ".png"},
		{"photo", "IMAGE/JPEG", ".jpg"},
		{"photo.webp", "", ".webp"},
		{"photo", "", ".bin"},
		{"animated.GIF", "image/gif", ".gif"},
	}

	for _, tc := range cases {
		if got := avatarExtension(tc.filename, tc.contentType); got != tc.want {
			t.Errorf("avatarExtension(%q, %q) = %q, want %q", tc.filename, tc.contentType, got, tc.want)
		}
	}
}
