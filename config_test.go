package extsort

import "testing"

func TestConfigValidateAccepts(t *testing.T) {
	cfg := testConfig()
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() = %v, want nil", err)
	}
}

func TestConfigValidateRejectsBadGeometry(t *testing.T) {
	cases := []struct {
		name string
		cfg  Config
	}{
		{"zero record size", Config{RecordSize: 0, KeySize: 4, HeaderSize: 6, PageSize: 512, NumPages: 4}},
		{"key size exceeds record size", Config{RecordSize: 16, KeySize: 20, HeaderSize: 6, PageSize: 512, NumPages: 4}},
		{"header size too large", Config{RecordSize: 16, KeySize: 4, HeaderSize: 512, PageSize: 512, NumPages: 4}},
		{"too few pages", Config{RecordSize: 16, KeySize: 4, HeaderSize: 6, PageSize: 512, NumPages: 1}},
		{"page too small for a record", Config{RecordSize: 600, KeySize: 4, HeaderSize: 6, PageSize: 512, NumPages: 4}},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			err := c.cfg.Validate()
			if err == nil {
				t.Fatal("Validate() = nil, want error")
			}
			if Code(err) != ErrCodeInvalidConfig {
				t.Errorf("Code(err) = %v, want ErrCodeInvalidConfig", Code(err))
			}
		})
	}
}

func TestKeyPrefixCompare(t *testing.T) {
	cmp := KeyPrefixCompare(4)
	a := makeRecord(5, 16)
	b := makeRecord(10, 16)
	if cmp(a, b) >= 0 {
		t.Errorf("cmp(5, 10) >= 0, want < 0")
	}
	if cmp(a, a) != 0 {
		t.Errorf("cmp(5, 5) != 0")
	}
}
