// Package securecookie holds the payload type carried by cookie tokens.
//
// Value is a closed JSON variant (null, bool, number, string, array,
// object) with ordered object members and a canonical encoding, so a payload
// survives encode and decode byte for byte:
//
//	v := securecookie.Object(
//		securecookie.Field("uid", securecookie.Int(1234567)),
//		securecookie.Field("roles", securecookie.Array(securecookie.String("admin"))),
//	)
//	raw, _ := v.MarshalJSON() // {"uid":1234567,"roles":["admin"]}
//
// The token format itself lives in package codec.
package securecookie
