package domain_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/triple-t/railbot/internal/domain"
)

func TestStationName(t *testing.T) {
	t.Run("TRA codes resolve", func(t *testing.T) {
		name, ok := domain.StationName(domain.ModeTRA, "1210")
		require.True(t, ok)
		assert.Equal(t, "新竹", name)

		name, ok = domain.StationName(domain.ModeTRA, "4400")
		require.True(t, ok)
		assert.Equal(t, "高雄", name)
	})

	t.Run("THSR codes resolve", func(t *testing.T) {
		name, ok := domain.StationName(domain.ModeTHSR, "1070")
		require.True(t, ok)
		assert.Equal(t, "左營", name)
	})

	t.Run("THSR and TRA use separate directories", func(t *testing.T) {
		thsrName, ok := domain.StationName(domain.ModeTHSR, "1030")
		require.True(t, ok)
		assert.Equal(t, "新竹", thsrName)
	})

	t.Run("unknown code is reported", func(t *testing.T) {
		_, ok := domain.StationName(domain.ModeTRA, "9999")
		assert.False(t, ok)
	})
}

func TestTrainTypeName(t *testing.T) {
	cases := map[string]string{
		"1":  "太魯閣",
		"2":  "普悠瑪",
		"3":  "自強",
		"4":  "莒光",
		"5":  "復興",
		"6":  "區間",
		"7":  "普快",
		"10": "區間快",
	}
	for code, want := range cases {
		name, ok := domain.TrainTypeName(code)
		require.True(t, ok, "code %s", code)
		assert.Equal(t, want, name)
	}

	_, ok := domain.TrainTypeName("99")
	assert.False(t, ok)
}

func TestMatchStation(t *testing.T) {
	t.Run("exact name matches", func(t *testing.T) {
		name, ok := domain.MatchStation(domain.ModeTRA, "新竹")
		require.True(t, ok)
		assert.Equal(t, "新竹", name)
	})

	t.Run("name with trailing text matches by prefix", func(t *testing.T) {
		name, ok := domain.MatchStation(domain.ModeTRA, "新竹站")
		require.True(t, ok)
		assert.Equal(t, "新竹", name)
	})

	t.Run("simplified 台 folds to 臺", func(t *testing.T) {
		name, ok := domain.MatchStation(domain.ModeTHSR, "台中")
		require.True(t, ok)
		assert.Equal(t, "臺中", name)
	})

	t.Run("longer names win over shared prefixes", func(t *testing.T) {
		name, ok := domain.MatchStation(domain.ModeTHSR, "臺南市區")
		require.True(t, ok)
		assert.Equal(t, "臺南", name)
	})

	t.Run("surrounding whitespace is trimmed", func(t *testing.T) {
		name, ok := domain.MatchStation(domain.ModeTRA, "  高雄 ")
		require.True(t, ok)
		assert.Equal(t, "高雄", name)
	})

	t.Run("unknown text does not match", func(t *testing.T) {
		_, ok := domain.MatchStation(domain.ModeTRA, "hogwarts")
		assert.False(t, ok)
	})

	t.Run("empty input does not match", func(t *testing.T) {
		_, ok := domain.MatchStation(domain.ModeTRA, "   ")
		assert.False(t, ok)
	})
}
