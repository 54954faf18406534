package intake

// ExtractionPrompt instructs the model to return the summary fields of a
// purchase order image as a single JSON object.
const ExtractionPrompt = "You read purchase order documents.\n\n" +
	"Task:\n" +
	"- Analyze the attached purchase order and extract the key details: PO Number, " +
	"Sub Total, Tax, Grand Total, Supplier Name, Buyer Department and Notes.\n" +
	"- Output STRICT JSON only (no comments, no trailing commas, no extra text).\n\n" +
	"The object must have exactly these fields:\n" +
	"- \"poNumber\": string\n" +
	"- \"subTotal\": number\n" +
	"- \"tax\": number\n" +
	"- \"grandTotal\": number\n" +
	"- \"supplierName\": string\n" +
	"- \"buyerDepartment\": string\n" +
	"- \"notes\": string\n\n" +
	"Rules:\n" +
	"- Amounts are plain numbers without currency symbols or thousands separators.\n" +
	"- Use an empty string for any text field you cannot find, and 0 for a missing amount.\n" +
	"- Copy values as printed; do not correct arithmetic.\n\n" +
	"Return ONLY valid raw JSON.\n" +
	"Do NOT wrap the response in code fences.\n" +
	"Output must begin with \"{\" and end with \"}\".\n"
