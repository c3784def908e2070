package util

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCountFiles(t *testing.T) {
	testCases := []struct {
		Name          string
		FilesToCreate int
		Target        int
		Count         int
		Overage       bool
		Error         error
	}{{Name: "test no files", FilesToCreate: 0, Target: 1, Count: 0, Overage: false},
		{Name: "test with subdirs but no target 1", FilesToCreate: 15, Target: 1, Count: 2, Overage: true},
		{Name: "test target higher than count with one subdir", FilesToCreate: 15, Target: 16, Count: 15, Overage: false},
		{Name: "test target higher than count with many subdir", FilesToCreate: 1000, Target: 1001, Count: 1000, Overage: false},
		{Name: "test over limit", FilesToCreate: 5, Target: 1, Count: 2, Overage: true}}
	for _, c := range testCases {
		t.Run(c.Name, func(t *testing.T) {
			dir := t.TempDir()
			var path = dir
			for i := 0; i < c.FilesToCreate/10; i++ {
				path = filepath.Join(path, fmt.Sprintf("%d", i))
				os.Mkdir(path, 0755)
				for w := 0; w < 10; w++ {
					os.Create(filepath.Join(path, fmt.Sprintf("%d.file", w)))
				}
			}
			for i := 0; i < c.FilesToCreate%10; i++ {
				os.Create(filepath.Join(dir, fmt.Sprintf("%d.file", i)))
			}
			count, overage, err := CountFiles(dir, c.Target)
			if count != c.Count {
				t.Errorf("Expected Count to be %d but got %d", c.Count, count)
			}
			if overage != c.Overage {
				t.Errorf("Expected Count to be %v but got %v", c.Overage, overage)
			}
			if err != c.Error {
				t.Errorf("Expected Error to be %v but got %v", c.Error, err)
			}
		})
	}
	t.Run("Test nonexistant path", func(t *testing.T) {
		dir := t.TempDir()
		var path = filepath.Join(dir, "nonexistant")
		//	var nonexistantErr := nil
		_, _, err := CountFiles(path, 100)
		if !os.IsNotExist(err) {
			t.Errorf("Expected error of type IsNotExist but got %v", err)
		}
	})
	t.Run("Test file instead of directory", func(t *testing.T) {
		dir := t.TempDir()
		var path = filepath.Join(dir, "file")
		os.Create(path)
		//	var nonexistantErr := nil
		_, _, err := CountFiles(path, 100)
		if err != ErrExpectedDirectory {
			t.Errorf("Expected error of type %v but got %v", ErrExpectedDirectory, err)
		}
	})
}

func TestNodeStats(t *testing.T) {
	root := NewDirectory("/out")
	root.Hash = "abc"
	inner := NewDirectory("/out/inner")
	inner.Children = append(inner.Children, NewImage("/out/inner/a.png"), NewUnknown("/out/inner/b.txt"))
	deep := NewDirectory("/out/inner/deep")
	deep.Children = append(deep.Children, NewImage("/out/inner/deep/c.png"))
	inner.Children = append(inner.Children, deep)
	root.Children = append(root.Children, inner, NewUnknown("/out/readme"))

	s := root.Stats()
	assert.Equal(t, TreeStats{Directories: 3, Images: 2, Unknown: 2, MaxDepth: 3}, s)
	assert.Equal(t, 7, s.Total())
}

func TestNodeWalk_Prune(t *testing.T) {
	root := NewDirectory("/out")
	skipped := NewDirectory("/out/skip")
	skipped.Children = append(skipped.Children, NewImage("/out/skip/a.png"))
	root.Children = append(root.Children, skipped, NewImage("/out/b.png"))

	var visited []string
	root.Walk(func(n *Node, _ int) bool {
		visited = append(visited, n.Path)
		return n.Path != "/out/skip"
	})
	assert.Equal(t, []string{"/out", "/out/skip", "/out/b.png"}, visited)
}

func TestCountFilesFunc_Progress(t *testing.T) {
	dir := t.TempDir()
	for i := 0; i < 3; i++ {
		require.NoError(t, os.WriteFile(filepath.Join(dir, fmt.Sprintf("f%d", i)), nil, 0o644))
	}

	var seen []int
	count, overage, err := CountFilesFunc(dir, 0, func(n int) { seen = append(seen, n) })
	require.NoError(t, err)
	assert.False(t, overage)
	assert.Equal(t, 3, count)
	assert.Equal(t, []int{1, 2, 3}, seen)
}
