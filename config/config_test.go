// Copyright 2015 The go-ethereum Authors
// This file is part of the go-ethereum library.
//
// The go-ethereum library is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// The go-ethereum library is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with the go-ethereum library. If not, see <http://www.gnu.org/licenses/>.

package config

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSetGetRoundTrip(t *testing.T) {
	s := New()
	require.NoError(t, s.Set("hostname", "nanoprobe-1"))
	require.NoError(t, s.Set("port", 1984))

	require.Equal(t, "nanoprobe-1", s.GetString("hostname", ""))
	require.Equal(t, int64(1984), s.GetInt("port", 0))
}

func TestGetDefaultsWhenAbsentOrWrongType(t *testing.T) {
	s := New()
	require.NoError(t, s.Set("hostname", "x"))

	require.Equal(t, "fallback", s.GetString("missing", "fallback"))
	require.Equal(t, int64(-1), s.GetInt("hostname", -1))
	require.False(t, s.Has("missing"))
	require.True(t, s.Has("hostname"))
}

func TestReplaceFromJSONDiscardsPriorKeys(t *testing.T) {
	s := New()
	require.NoError(t, s.Set("old", "value"))
	require.NoError(t, s.ReplaceFromJSON([]byte(`{"new":"value"}`)))

	require.False(t, s.Has("old"))
	require.True(t, s.Has("new"))
}

func TestReplaceFromJSONRejectsMalformed(t *testing.T) {
	s := New()
	require.Error(t, s.ReplaceFromJSON([]byte(`not json`)))
}

func TestSaveLoadRoundTrip(t *testing.T) {
	s := New()
	require.NoError(t, s.Set("deadtime", 30))
	require.NoError(t, s.Set("warn", true))

	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, s.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, int64(30), loaded.GetInt("deadtime", 0))
	require.True(t, loaded.GetBool("warn", false))
}
