/*
Package isbn normalizes raw barcode payloads into canonical ISBN strings.

Two encodings share the identifier space: the 13 digit EAN "Bookland" form
(prefix 978 or 979) and the legacy 10 character form whose last character is
a modulo-11 check digit that may be X. Normalize accepts either by shape
alone; NormalizeStrict additionally verifies the check digit.
*/
package isbn
