package vietnamese

import "testing"

func TestNormalizeStripsDiacritics(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"máy", "may"},
		{"Tài liệu", "Tai lieu"},
		{"Hướng dẫn sử dụng", "Huong dan su dung"},
		{"Điện Đàm", "Dien Dam"},
		{"MÀU", "MAU"},
		{"already plain ascii 123", "already plain ascii 123"},
		{"", ""},
	}
	for _, tc := range cases {
		if got := Normalize(tc.in); got != tc.want {
			t.Fatalf("Normalize(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestNormalizeIsIdempotent(t *testing.T) {
	inputs := []string{"máy photocopy Ricoh", "Phòng Kỹ Thuật", "日本語 mixed ử", ""}
	for _, in := range inputs {
		once := Normalize(in)
		if twice := Normalize(once); twice != once {
			t.Fatalf("Normalize not idempotent for %q: %q != %q", in, twice, once)
		}
	}
}

func TestNormalizePreservesNonVietnameseUnicode(t *testing.T) {
	in := "日本語 Ωmega"
	if got := Normalize(in); got != in {
		t.Fatalf("Normalize(%q) = %q, expected unchanged", in, got)
	}
}

func TestSlugify(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"Tài liệu-Hướng dẫn sử dụng", "tai-lieu-huong-dan-su-dung"},
		{"Phòng Kỹ Thuật", "phong-ky-thuat"},
		{"  Máy   Photocopy  ", "may-photocopy"},
		{"A4 Color!!", "a4-color"},
		{"", ""},
	}
	for _, tc := range cases {
		if got := Slugify(tc.in); got != tc.want {
			t.Fatalf("Slugify(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
