package xlsx

// SampleSheet is the sheet name of the demo workbook.
const SampleSheet = "Users"

// SampleRows is the demo "Users" table: a header row and five people.
func SampleRows() [][]any {
	return [][]any{
		{"ID", "Name", "Age", "Email", "Department"},
		{1, "John Doe", 30, "john@example.com", "Engineering"},
		{2, "Jane Smith", 28, "jane@example.com", "Marketing"},
		{3, "Bob Wilson", 35, "bob@example.com", "Sales"},
		{4, "Alice Brown", 32, "alice@example.com", "HR"},
		{5, "Charlie Davis", 27, "charlie@example.com", "Engineering"},
	}
}

// WriteSample writes the demo workbook to path.
func WriteSample(path string) error {
	return WriteRows(path, SampleSheet, SampleRows())
}
