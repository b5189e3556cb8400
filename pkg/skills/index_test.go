package skills

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeSkill(t *testing.T, root, dir, content string) string {
	t.Helper()
	skillDir := filepath.Join(root, dir)
	require.NoError(t, os.MkdirAll(skillDir, 0o755))
	path := filepath.Join(skillDir, "SKILL.md")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestIndexScan(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()

	writeSkill(t, root, "test-skill", `---
name: test-skill
description: A test skill
keywords:
  - testing
---

# Test Skill
`)
	writeSkill(t, root, "another-skill", `---
name: another-skill
description: Another one
---

# Another Skill
`)

	// Files and extension-less dirs without SKILL.md are ignored
	require.NoError(t, os.WriteFile(filepath.Join(root, "README.md"), []byte("not a skill"), 0o644))
	require.NoError(t, os.MkdirAll(filepath.Join(root, "empty-dir"), 0o755))

	index := NewIndex(root)
	diags, err := index.Scan(ctx)
	require.NoError(t, err)
	assert.Empty(t, diags)
	assert.Equal(t, 2, index.Len())

	md, err := index.GetMetadata("test-skill")
	require.NoError(t, err)
	assert.Equal(t, "A test skill", md.Description)
	assert.Equal(t, root, md.Root)

	assert.True(t, index.Has("another-skill"))
	assert.False(t, index.Has("missing"))

	_, err = index.GetMetadata("missing")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestIndexScanParseFailureStillRegisters(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()

	writeSkill(t, root, "broken-skill", "# No frontmatter here\n\nbody\n")

	index := NewIndex(root)
	diags, err := index.Scan(ctx)
	require.NoError(t, err)

	require.Len(t, diags, 1)
	assert.Equal(t, DiagParseFailure, diags[0].Kind)
	assert.NotEmpty(t, diags[0].ScanID)

	md, err := index.GetMetadata("broken-skill")
	require.NoError(t, err)
	assert.Equal(t, "Broken Skill", md.Title)
	assert.Equal(t, "1.0.0", md.Version)
}

func TestIndexScanNameCollision(t *testing.T) {
	ctx := context.Background()
	rootA := t.TempDir()
	rootB := t.TempDir()

	writeSkill(t, rootA, "shared-skill", `---
name: shared-skill
description: from root A
---
body
`)
	pathB := writeSkill(t, rootB, "shared-skill", `---
name: shared-skill
description: from root B
---
body
`)

	index := NewIndex(rootA, rootB)
	diags, err := index.Scan(ctx)
	require.NoError(t, err)

	require.Len(t, diags, 1)
	assert.Equal(t, DiagNameCollision, diags[0].Kind)
	assert.Equal(t, pathB, diags[0].Path)

	// Later root wins
	md, err := index.GetMetadata("shared-skill")
	require.NoError(t, err)
	assert.Equal(t, "from root B", md.Description)
	assert.Equal(t, rootB, md.Root)
	assert.Equal(t, 1, index.Len())
}

func TestIndexScanRootFailures(t *testing.T) {
	ctx := context.Background()

	t.Run("one unreadable root is a diagnostic, not a failure", func(t *testing.T) {
		good := t.TempDir()
		writeSkill(t, good, "real-skill", `---
name: real-skill
---
body
`)

		index := NewIndex(filepath.Join(good, "does-not-exist"), good)
		diags, err := index.Scan(ctx)
		require.NoError(t, err)

		require.Len(t, diags, 1)
		assert.Equal(t, DiagRootUnreadable, diags[0].Kind)
		assert.True(t, index.Has("real-skill"))
	})

	t.Run("all roots unreadable retains previous registry", func(t *testing.T) {
		root := t.TempDir()
		writeSkill(t, root, "survivor", `---
name: survivor
---
body
`)

		index := NewIndex(root)
		_, err := index.Scan(ctx)
		require.NoError(t, err)
		require.True(t, index.Has("survivor"))

		require.NoError(t, os.RemoveAll(root))

		diags, err := index.Scan(ctx)
		require.Error(t, err)
		require.Len(t, diags, 1)
		assert.Equal(t, DiagRootUnreadable, diags[0].Kind)

		// Previous mapping kept
		assert.True(t, index.Has("survivor"))
		assert.Equal(t, 1, index.Len())
	})
}

func TestIndexListAllDiscoveryOrder(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()

	// ReadDir returns lexical order, so discovery order is deterministic
	writeSkill(t, root, "alpha", "---\nname: alpha\n---\nbody\n")
	writeSkill(t, root, "bravo", "---\nname: bravo\n---\nbody\n")
	writeSkill(t, root, "charlie", "---\nname: charlie\n---\nbody\n")

	index := NewIndex(root)
	_, err := index.Scan(ctx)
	require.NoError(t, err)

	all := index.ListAll()
	require.Len(t, all, 3)
	assert.Equal(t, "alpha", all[0].Name)
	assert.Equal(t, "bravo", all[1].Name)
	assert.Equal(t, "charlie", all[2].Name)
}

func TestIndexScanSymlinkedSkill(t *testing.T) {
	ctx := context.Background()
	tmp := t.TempDir()
	root := filepath.Join(tmp, "skills")
	require.NoError(t, os.MkdirAll(root, 0o755))

	actual := filepath.Join(tmp, "elsewhere", "linked-skill")
	require.NoError(t, os.MkdirAll(actual, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(actual, "SKILL.md"), []byte(`---
name: linked-skill
---
body
`), 0o644))
	require.NoError(t, os.Symlink(actual, filepath.Join(root, "linked-skill")))

	index := NewIndex(root)
	_, err := index.Scan(ctx)
	require.NoError(t, err)
	assert.True(t, index.Has("linked-skill"))
}

func TestIndexAddRoot(t *testing.T) {
	ctx := context.Background()
	rootA := t.TempDir()
	rootB := t.TempDir()

	writeSkill(t, rootA, "first-skill", "---\nname: first-skill\n---\nbody\n")
	writeSkill(t, rootB, "second-skill", "---\nname: second-skill\n---\nbody\n")

	index := NewIndex(rootA)
	_, err := index.Scan(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, index.Len())

	_, err = index.AddRoot(ctx, rootB)
	require.NoError(t, err)
	assert.Equal(t, 2, index.Len())
	assert.True(t, index.Has("second-skill"))

	// Adding the same root twice does not duplicate it
	_, err = index.AddRoot(ctx, rootB)
	require.NoError(t, err)
	absB, _ := filepath.Abs(rootB)
	count := 0
	for _, r := range index.Roots() {
		if r == absB {
			count++
		}
	}
	assert.Equal(t, 1, count)
}
