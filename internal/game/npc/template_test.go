package npc_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/cory-johannsen/arena/internal/game/npc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const golemYAML = `id: golem
name: GOLEM
description: A stationary practice dummy that hits back when struck.
archetype: stationary_guardian
abilities:
  strength: 18
  dexterity: 6
  constitution: 20
  intelligence: 3
  wisdom: 10
  charisma: 1
max_hp: 100
ac: 8
speed: 0
attacks:
  - name: Stone Fist
    attack_bonus: 6
    damage_dice: 1d1
    damage_bonus: 0
    damage_type: bludgeoning
    reach: 5
`

func TestLoadTemplateFromBytes_Golem(t *testing.T) {
	tmpl, err := npc.LoadTemplateFromBytes([]byte(golemYAML))
	require.NoError(t, err)

	assert.Equal(t, "golem", tmpl.ID)
	assert.Equal(t, "GOLEM", tmpl.Name)
	assert.Equal(t, npc.ArchetypeStationaryGuardian, tmpl.Archetype)
	assert.Equal(t, 100, tmpl.MaxHP)
	assert.Equal(t, 8, tmpl.AC)
	assert.Equal(t, 0, tmpl.Speed)
	assert.Equal(t, 18, tmpl.Abilities.Strength)
	assert.Equal(t, 6, tmpl.Abilities.Dexterity)
	require.Len(t, tmpl.Attacks, 1)
	assert.Equal(t, "Stone Fist", tmpl.Attacks[0].Name)
	assert.Equal(t, "1d1", tmpl.Attacks[0].DamageDice)
	assert.Nil(t, tmpl.Spawn)
}

func TestTemplateValidate(t *testing.T) {
	valid := func() *npc.Template {
		tmpl, err := npc.LoadTemplateFromBytes([]byte(golemYAML))
		require.NoError(t, err)
		return tmpl
	}

	tests := []struct {
		name    string
		mutate  func(*npc.Template)
		wantErr string
	}{
		{
			name:    "missing id",
			mutate:  func(tmpl *npc.Template) { tmpl.ID = "" },
			wantErr: "id must not be empty",
		},
		{
			name:    "missing name",
			mutate:  func(tmpl *npc.Template) { tmpl.Name = "" },
			wantErr: "name must not be empty",
		},
		{
			name:    "unknown archetype",
			mutate:  func(tmpl *npc.Template) { tmpl.Archetype = "wandering_menace" },
			wantErr: "unknown archetype",
		},
		{
			name:    "zero hp",
			mutate:  func(tmpl *npc.Template) { tmpl.MaxHP = 0 },
			wantErr: "max_hp must be >= 1",
		},
		{
			name:    "zero ac",
			mutate:  func(tmpl *npc.Template) { tmpl.AC = 0 },
			wantErr: "ac must be >= 1",
		},
		{
			name:    "negative speed",
			mutate:  func(tmpl *npc.Template) { tmpl.Speed = -5 },
			wantErr: "speed must not be negative",
		},
		{
			name:    "unnamed attack",
			mutate:  func(tmpl *npc.Template) { tmpl.Attacks[0].Name = "" },
			wantErr: "attack name must not be empty",
		},
		{
			name:    "bad damage dice",
			mutate:  func(tmpl *npc.Template) { tmpl.Attacks[0].DamageDice = "d6" },
			wantErr: "dice",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tmpl := valid()
			tt.mutate(tmpl)
			err := tmpl.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoadTemplates(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "golem.yaml"), []byte(golemYAML), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("not yaml"), 0o644))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub"), 0o755))

	templates, err := npc.LoadTemplates(dir)
	require.NoError(t, err)
	require.Len(t, templates, 1)
	assert.Equal(t, "golem", templates[0].ID)
}

func TestLoadTemplates_InvalidFileFails(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bad.yaml"), []byte("id: x\nname: X\narchetype: nope\nmax_hp: 1\nac: 1\n"), 0o644))

	_, err := npc.LoadTemplates(dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad.yaml")
}

func TestLoadTemplates_MissingDir(t *testing.T) {
	_, err := npc.LoadTemplates(filepath.Join(t.TempDir(), "nope"))
	require.Error(t, err)
}

func TestInstantiate(t *testing.T) {
	tmpl, err := npc.LoadTemplateFromBytes([]byte(golemYAML))
	require.NoError(t, err)

	c, err := tmpl.Instantiate("npc-1")
	require.NoError(t, err)

	assert.Equal(t, "npc-1", c.ID)
	assert.Equal(t, "GOLEM", c.Name)
	assert.Equal(t, npc.OwnerID, c.OwnerID)
	assert.True(t, c.IsNPC)
	assert.True(t, c.IsAlive)
	assert.Equal(t, 100, c.CurrentHP)
	assert.Equal(t, 0, c.Speed)
	assert.Nil(t, c.Position)
	assert.Equal(t, 5, c.Attacks[0].Reach)
}
