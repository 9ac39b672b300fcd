package ledger

import "strconv"

// Transaction is one transfer record carried in a block's data. Records
// are taken at face value: there is no balance, signature, or duplicate
// checking at this layer.
type Transaction struct {
	Sender    string  `json:"sender"`
	Recipient string  `json:"recipient"`
	Quantity  float64 `json:"quantity"`
}

// appendCanonical writes the transaction's canonical textual form used
// for block hashing. Integral quantities render without a decimal point.
func (t Transaction) appendCanonical(buf []byte) []byte {
	buf = append(buf, t.Sender...)
	buf = append(buf, "->"...)
	buf = append(buf, t.Recipient...)
	buf = append(buf, ':')
	buf = strconv.AppendFloat(buf, t.Quantity, 'g', -1, 64)
	return append(buf, ';')
}
