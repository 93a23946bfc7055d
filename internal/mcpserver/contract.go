package mcpserver

// SidecarFormatContract describes the scheduling sidecar format that
// imports write and review tools read. LLM consumers should follow it
// when inspecting or explaining vault state.
const SidecarFormatContract = `# Perthro Sidecar Format Contract

Every review item's scheduling state lives in a sidecar file under
` + "`IR/Review Items/<id>.md`" + `. Sidecars are frontmatter-only Markdown files;
the note content itself stays untouched in the imported note file.

## Topic sidecar

` + "```" + `markdown
---
ir_note_id: aB3xK9mQr2Zp
note_path: Imported/Biology/1700000000001.md
type: topic
priority: 50
topic:
    status: review          # new | learning | review | relearning
    due: 2025-03-01T00:00:00Z
    stability: 30           # days
    difficulty: 2.9         # 1.0 (easy) – 10.0 (hard)
    reps: 12
    lapses: 1
    last_review: 2025-02-01T08:30:00Z
---
` + "```" + `

## Item (cloze) sidecar

Cloze-bearing notes carry one state block per cloze index, keyed ` + "`c1`" + `,
` + "`c2`" + `, …; each cloze has its own generated identifier.

` + "```" + `markdown
---
ir_note_id: aB3xK9mQr2Zp
note_path: Imported/Biology/1700000000002.md
type: item
priority: 50
clozes:
    c1:
        id: pQ7wN2vLk8Rt
        status: review
        due: 2025-03-01T00:00:00Z
        stability: 10
        difficulty: 3.1
        reps: 4
        lapses: 0
        last_review: null
    c2:
        id: hF5cX1bJm9Ws
        status: new
        due: null
        stability: 0
        difficulty: 0
        reps: 0
        lapses: 0
        last_review: null
---
` + "```" + `

## Rules

1. Sidecars contain frontmatter only; anything after the closing ` + "`---`" + ` is ignored.
2. ` + "`note_path`" + ` is vault-relative with forward slashes.
3. Timestamps are RFC 3339 in UTC; ` + "`null`" + ` means "never" / "not scheduled".
4. The sidecar is the source of truth for scheduling. The index database is
   a derived view and may be rebuilt from sidecars at any time.
5. Review history is NOT stored here; it is appended as JSON lines to
   monthly files under ` + "`IR/Revlog/<YYYY-MM>.md`" + `.
`
