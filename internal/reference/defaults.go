package reference

// DefaultEntries returns the built-in region table: six metro stores and the
// spellings seen in raw exports.
func DefaultEntries() []Entry {
	return []Entry{
		{Region: "Bangalore"},
		{Region: "Bangalore", Alias: "Bengaluru"},
		{Region: "Bangalore", Alias: "Blr"},
		{Region: "Delhi"},
		{Region: "Delhi", Alias: "New Delhi"},
		{Region: "Hyderabad"},
		{Region: "Hyderabad", Alias: "Hyd"},
		{Region: "Hyderabad", Alias: "Hyderbad"},
		{Region: "Kolkata"},
		{Region: "Kolkata", Alias: "Calcutta"},
		{Region: "Mumbai"},
		{Region: "Mumbai", Alias: "Bombay"},
		{Region: "Pune"},
	}
}
