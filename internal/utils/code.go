package utils

import (
    "crypto/rand"
    "errors"
    "math/big"
)

const tokenAlphabet = "0123456789abcdefghijklmnopqrstuvwxyz"

// StudentIDLength matches the 11-13 character base-36 tokens the web client produced.
const StudentIDLength = 11

// GenerateCode returns n random characters from the lowercase base-36 alphabet.
func GenerateCode(n int) (string, error) {
    if n <= 0 {
        n = StudentIDLength
    }
    b := make([]byte, n)
    for i := 0; i < n; i++ {
        idx, err := RandomIndex(len(tokenAlphabet))
        if err != nil {
            return "", err
        }
        b[i] = tokenAlphabet[idx]
    }
    return string(b), nil
}

// GenerateStudentID creates the per-session student identifier sent on join.
func GenerateStudentID() (string, error) {
    return GenerateCode(StudentIDLength)
}

// RandomIndex returns a uniformly random index in [0, n).
func RandomIndex(n int) (int, error) {
    if n <= 0 {
        return 0, errors.New("utils: random index over empty range")
    }
    idxBig, err := rand.Int(rand.Reader, big.NewInt(int64(n)))
    if err != nil {
        return 0, err
    }
    return int(idxBig.Int64()), nil
}
