package mcpserver

// MemoFormat describes how voice memos land in the vault, for LLM
// consumers reading daily notes.
const MemoFormat = `# Voice Memo Section Format

Each transcribed memo is appended to the daily note of the day it was
processed (local time). Daily notes live at ` + "`" + `<daily-note-path>/YYYY-MM-DD.md` + "`" + `.

## Structure

` + "```" + `markdown
<existing note content>

## 🎙️ Voice Memo (HH:MM)

<transcription and summary, verbatim from the model>
` + "```" + `

## Rules

1. Sections are only ever appended. Earlier content is never rewritten.
2. Every section starts with two newlines, then the heading with the
   24-hour local time the memo was processed.
3. Several memos on the same day produce several sections, in processing order.
4. The source audio is moved to ` + "`" + `_assets/voice_archive/<original-filename>` + "`" + `
   after the note is written.
5. Memos whose transcription failed have no section; their journal record
   has status ` + "`" + `failed` + "`" + ` and the audio stays in the watch directory.
`
